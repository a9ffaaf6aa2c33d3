package api

import (
	"investbot/internal/ledger"     // Wallet ledger
	"investbot/internal/metrics"    // Prometheus
	"investbot/internal/middleware" // Webview identity
	"investbot/internal/raffle"     // Sweepstake schedule
	"investbot/internal/rates"      // Exchange rate
	"net/http"                      // HTTP status codes
	"time"                          // Clock

	"github.com/gin-gonic/gin" // Gin web framework
)

// Deps are the collaborators the HTTP surface is built from
type Deps struct {
	Ledger      *ledger.Ledger   // Wallet engine
	Rates       *rates.Provider  // USDT/RUB rate
	BotUsername string           // Bot used in referral links
	Draw        raffle.Draw      // Next sweepstake
	Now         func() time.Time // Clock for the countdown
}

// NewRouter wires every route onto r
func NewRouter(r *gin.Engine, d Deps) *gin.Engine {
	if d.Now == nil {
		d.Now = time.Now
	}
	r.Use(metrics.Middleware(), middleware.WebAppIdentity()) // Every route sees the webview user

	r.GET("/metrics", gin.WrapH(metrics.Handler())) // Prometheus scrape endpoint
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	// Wallet routes
	walletGroup := r.Group("/wallet")
	walletGroup.GET("", GetWalletHandler(d.Ledger, d.Rates))                         // Get wallet endpoint
	walletGroup.GET("/transactions", GetTransactionHistoryHandler(d.Ledger))         // Transaction history endpoint
	walletGroup.GET("/stream", StreamHandler(d.Ledger, d.Rates))                     // Live updates endpoint
	walletGroup.POST("/deposit", DepositHandler(d.Ledger, d.Rates))                  // Deposit endpoint
	walletGroup.POST("/withdraw", WithdrawHandler(d.Ledger, d.Rates))                // Withdraw endpoint
	walletGroup.POST("/collect", CollectEarningsHandler(d.Ledger, d.Rates))          // Collect earnings endpoint
	walletGroup.POST("/reinvest", ReinvestHandler(d.Ledger, d.Rates))                // Reinvest endpoint
	walletGroup.POST("/auto-reinvest", ToggleAutoReinvestHandler(d.Ledger, d.Rates)) // Auto-reinvest toggle endpoint

	// Invest endpoint, webview only
	walletGroup.POST("/invest", middleware.RequireWebAppUser(), InvestHandler(d.Ledger, d.Rates))

	// Informational routes
	r.GET("/levels", LevelsHandler(d.Ledger))                        // Tier table
	r.GET("/calculator", CalculatorHandler(d.Ledger))                // Yield projection
	r.GET("/rates", RatesHandler(d.Rates))                           // USDT rate
	r.GET("/me", ProfileHandler(d.BotUsername))                      // Webview identity and referral link
	r.GET("/raffle", RaffleHandler(d.Draw, d.Now))                   // Next draw
	r.POST("/raffle/ticket", RaffleTicketHandler(d.Ledger, d.Rates)) // Ticket purchase
	return r
}
