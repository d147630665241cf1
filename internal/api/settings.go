package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"wavewatch/internal/handlers"
	"wavewatch/internal/services/strategy"
)

// SettingsController is the live-settings side of the monitor.
type SettingsController interface {
	Settings() handlers.Settings
	UpdateSettings(s handlers.Settings) error
}

// settingsBody is the JSON form of the monitor settings. On PUT, omitted
// fields keep their current value.
type settingsBody struct {
	Symbols             []string `json:"symbols,omitempty"`
	Timeframe           string   `json:"timeframe,omitempty"`
	Strategy            string   `json:"strategy,omitempty"`
	RSIBuy              *float64 `json:"rsi_buy,omitempty"`
	RSISell             *float64 `json:"rsi_sell,omitempty"`
	MinNotional         *float64 `json:"min_notional,omitempty"`
	PollIntervalSeconds int      `json:"poll_interval_seconds,omitempty"`
	CandleLimit         int      `json:"candle_limit,omitempty"`
	TradeLimit          *int     `json:"trade_limit,omitempty"`
	Workers             int      `json:"workers,omitempty"`
}

// WithSettings exposes GET and PUT /settings.
func (s *Server) WithSettings(ctrl SettingsController) *Server {
	s.settings = ctrl
	s.engine.GET("/settings", s.getSettings)
	s.engine.PUT("/settings", s.putSettings)
	return s
}

func (s *Server) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, settingsView(s.settings.Settings()))
}

func (s *Server) putSettings(c *gin.Context) {
	var body settingsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	next, err := body.apply(s.settings.Settings())
	if err == nil {
		err = s.settings.UpdateSettings(next)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.log.Info().Str("request_id", c.GetString("request_id")).Msg("settings changed over api")
	c.JSON(http.StatusOK, settingsView(s.settings.Settings()))
}

func (b settingsBody) apply(cur handlers.Settings) (handlers.Settings, error) {
	next := cur
	next.Symbols = append([]string(nil), cur.Symbols...)

	if b.Symbols != nil {
		next.Symbols = next.Symbols[:0]
		seen := make(map[string]bool)
		for _, sym := range b.Symbols {
			sym = strings.ToUpper(strings.TrimSpace(sym))
			if sym == "" || seen[sym] {
				continue
			}
			seen[sym] = true
			next.Symbols = append(next.Symbols, sym)
		}
	}
	if b.Timeframe != "" {
		next.Timeframe = b.Timeframe
	}
	if b.Strategy != "" {
		name, err := strategy.ParseName(b.Strategy)
		if err != nil {
			return cur, err
		}
		next.Params.Strategy = name
	}
	if b.RSIBuy != nil {
		next.Params.RSIBuy = *b.RSIBuy
	}
	if b.RSISell != nil {
		next.Params.RSISell = *b.RSISell
	}
	if b.MinNotional != nil {
		next.Params.MinNotional = *b.MinNotional
	}
	if b.PollIntervalSeconds != 0 {
		next.PollInterval = time.Duration(b.PollIntervalSeconds) * time.Second
	}
	if b.CandleLimit != 0 {
		next.CandleLimit = b.CandleLimit
	}
	if b.TradeLimit != nil {
		next.TradeLimit = *b.TradeLimit
	}
	if b.Workers != 0 {
		next.Workers = b.Workers
	}
	return next, nil
}

func settingsView(s handlers.Settings) settingsBody {
	rsiBuy, rsiSell, minNotional, tradeLimit := s.Params.RSIBuy, s.Params.RSISell, s.Params.MinNotional, s.TradeLimit
	return settingsBody{
		Symbols:             s.Symbols,
		Timeframe:           s.Timeframe,
		Strategy:            s.Params.Strategy,
		RSIBuy:              &rsiBuy,
		RSISell:             &rsiSell,
		MinNotional:         &minNotional,
		PollIntervalSeconds: int(s.PollInterval / time.Second),
		CandleLimit:         s.CandleLimit,
		TradeLimit:          &tradeLimit,
		Workers:             s.Workers,
	}
}
