package api

import (
	"investbot/internal/calculator" // Yield projection
	"investbot/internal/ledger"     // Wallet ledger
	"investbot/internal/middleware" // Webview identity
	"investbot/internal/money"      // Amount parsing and formatting
	"investbot/internal/raffle"     // Sweepstake schedule
	"investbot/internal/rates"      // Exchange rate
	"investbot/internal/telegram"   // Referral links
	"net/http"                      // HTTP status codes
	"strconv"                       // Query parsing
	"time"                          // Clock

	"github.com/gin-gonic/gin" // Gin web framework
)

// LevelsHandler returns the tier table and the wallet's position in it
func LevelsHandler(l *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		w := l.Read(c.Request.Context()) // Level depends on the reconciled principal
		c.JSON(http.StatusOK, gin.H{
			"levels":  l.RateTable(),                          // All tiers, ascending
			"current": l.RateTable().ResolveLevel(w.Invested), // Current and next tier
		})
	}
}

// CalculatorHandler projects income for ?amount= at the wallet's current rate
func CalculatorHandler(l *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cur := money.ParseCurrency(c.Query("currency"))                   // Projection unit
		amount, ok := money.ParseAmount(c.DefaultQuery("amount", "1000")) // Raw user input
		if !ok {
			amount = 0 // Unparseable input projects nothing
		}
		// An explicit rate lets the UI preview other tiers
		rate := l.RateTable().DailyRateFor(l.Read(c.Request.Context()).Invested)
		if r, err := strconv.ParseFloat(c.Query("rate"), 64); err == nil && r > 0 {
			rate = r
		}
		p := calculator.Project(amount, rate)
		c.JSON(http.StatusOK, gin.H{
			"projection": p,   // Raw figures
			"currency":   cur, // Unit of every figure
			"display": gin.H{
				"daily":   money.FormatNumber(p.Daily) + " " + unit(cur),
				"weekly":  money.FormatNumber(p.Weekly) + " " + unit(cur),
				"monthly": money.FormatNumber(p.Monthly) + " " + unit(cur),
				"yearly":  money.FormatNumber(p.Yearly) + " " + unit(cur),
				"rate":    money.FormatPercent(p.DailyRate),
			},
		})
	}
}

// unit returns the symbol shown after calculator figures
func unit(c money.Currency) string {
	if c == money.USDT {
		return "USDT"
	}
	return "₽"
}

// RatesHandler returns the USDT rate, refreshing it when stale
func RatesHandler(rp *rates.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		force := c.Query("force") == "true"
		rate := rp.Refresh(c.Request.Context(), force) // Never fails
		snap := rp.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"pair":      "USDT/RUB", // Quote pair
			"rate":      rate,       // RUB per USDT
			"updatedAt": snap.TS,    // Unix ms, 0 when never fetched
		})
	}
}

// ProfileHandler returns the webview user and their referral link
func ProfileHandler(bot string) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := middleware.User(c)
		if !ok {
			// Plain web page, no identity
			c.JSON(http.StatusOK, gin.H{"inWebApp": false, "referralShare": telegram.ReferralShare})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"inWebApp":      true,
			"user":          u,                                // Raw identity
			"displayName":   u.DisplayName(),                  // Name shown in the header
			"initials":      u.Initials(),                     // Avatar fallback
			"referralLink":  telegram.ReferralLink(bot, u.ID), // Invite link
			"referralShare": telegram.ReferralShare,           // Percent of referred deposits
		})
	}
}

// RaffleHandler returns the next draw and the time left until it
func RaffleHandler(draw raffle.Draw, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		if draw.DrawAt.IsZero() {
			c.JSON(http.StatusOK, gin.H{"scheduled": false, "ticketMinimum": raffle.TicketMinimum})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"scheduled":     true,
			"draw":          draw,                  // Title and time
			"countdown":     draw.Remaining(now()), // Time left
			"ticketMinimum": raffle.TicketMinimum,  // Smallest qualifying deposit
		})
	}
}
