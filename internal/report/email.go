package report

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"volarb/internal/config"
)

// Notifier emails the daily summary. Delivery failures are the caller's to
// log; a missed email never affects the ledger.
type Notifier struct {
	Config config.EmailConfig
	Logger *zap.Logger

	// send is swappable for tests; nil means smtp.SendMail.
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

var emailTemplate = template.Must(template.New("daily").Funcs(template.FuncMap{
	"pct":   func(f float64) float64 { return f * 100 },
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
}).Parse(`<html>
<body style="font-family: sans-serif">
<h2>Daily Trading Summary &mdash; {{.Date}}</h2>
<table cellpadding="4">
<tr><td>Portfolio value</td><td><b>${{money .PortfolioValue}}</b></td></tr>
<tr><td>Cash</td><td>${{money .Cash}}</td></tr>
<tr><td>Positions value</td><td>${{money .PositionsValue}}</td></tr>
<tr><td>Total return</td><td>{{printf "%.2f%%" (pct .TotalReturnPct)}}</td></tr>
<tr><td>Benchmark return</td><td>{{printf "%.2f%%" (pct .BenchmarkReturnPct)}}</td></tr>
<tr><td>Alpha</td><td>{{printf "%.2f%%" (pct .AlphaPct)}}</td></tr>
<tr><td>Max drawdown</td><td>{{printf "%.2f%%" (pct .MaxDrawdownPct)}}</td></tr>
<tr><td>Win rate</td><td>{{printf "%.0f%%" (pct .WinRate)}} of {{.TotalTrades}} trades</td></tr>
<tr><td>Open positions</td><td>{{.OpenPositions}}/{{.MaxPositions}}</td></tr>
</table>
{{if .Opened}}
<h3>Opened today</h3>
<ul>
{{range .Opened}}<li>SELL {{.Contracts}}x {{.Ticker}} {{printf "%.0f" .Strike}}C exp {{.Expiration}} @ ${{printf "%.2f" .EntryPrice}}</li>
{{end}}</ul>
{{end}}
{{if .Closed}}
<h3>Closed today</h3>
<ul>
{{range .Closed}}<li>{{.Ticker}} {{printf "%.0f" .Strike}}C: P&amp;L ${{money .PnL}}</li>
{{end}}</ul>
{{end}}
</body>
</html>`))

// Send renders and delivers the summary. It returns nil without sending
// when the notifier is disabled or when nothing traded and quiet days are
// muted.
func (n *Notifier) Send(summary Summary) error {
	if !n.Config.Enabled {
		return nil
	}
	if len(summary.Opened) == 0 && len(summary.Closed) == 0 && !n.Config.SendOnNoTrades {
		n.log().Debug("no trades today, skipping email")
		return nil
	}
	if n.Config.SMTPHost == "" || n.Config.Sender == "" || len(n.Config.Recipients) == 0 {
		return fmt.Errorf("email notifier enabled but smtp_host, sender or recipients missing")
	}

	var body bytes.Buffer
	if err := emailTemplate.Execute(&body, summary); err != nil {
		return fmt.Errorf("render email: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", n.Config.Sender)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(n.Config.Recipients, ", "))
	fmt.Fprintf(&msg, "Subject: Trading Summary %s\r\n", summary.Date)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	msg.Write(body.Bytes())

	addr := fmt.Sprintf("%s:%d", n.Config.SMTPHost, n.Config.SMTPPort)
	auth := smtp.PlainAuth("", n.Config.Sender, n.Config.Password, n.Config.SMTPHost)

	send := n.send
	if send == nil {
		send = smtp.SendMail
	}
	if err := send(addr, auth, n.Config.Sender, n.Config.Recipients, msg.Bytes()); err != nil {
		return fmt.Errorf("send email via %s: %w", addr, err)
	}
	n.log().Info("daily summary emailed",
		zap.Stringer("date", summary.Date),
		zap.Int("recipients", len(n.Config.Recipients)),
	)
	return nil
}

func (n *Notifier) log() *zap.Logger {
	if n.Logger == nil {
		return zap.NewNop()
	}
	return n.Logger
}
