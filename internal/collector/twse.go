package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"

	"github.com/shopspring/decimal"
)

const twseQuoteURL = "https://mis.twse.com.tw/stock/api/getStockInfo.jsp"

var taipei = mustLoadLocation("Asia/Taipei")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(name, 8*60*60)
	}
	return loc
}

// TWSEQuoteSource reads realtime quotes from the TWSE market information system.
// Listed and OTC channels are queried together; the first non-empty row wins.
type TWSEQuoteSource struct {
	Client  *http.Client
	BaseURL string
}

// NewTWSEQuoteSource creates a TWSE quote source.
func NewTWSEQuoteSource(proxyURL string) *TWSEQuoteSource {
	return &TWSEQuoteSource{
		Client:  newHTTPClient(proxyURL, 10*time.Second),
		BaseURL: twseQuoteURL,
	}
}

func (s *TWSEQuoteSource) Name() string { return "twse" }

type twseResponse struct {
	MsgArray []twseRow `json:"msgArray"`
	RtCode   string    `json:"rtcode"`
	RtMsg    string    `json:"rtmessage"`
}

type twseRow struct {
	Code   string `json:"c"`
	Name   string `json:"n"`
	Price  string `json:"z"`
	High   string `json:"h"`
	Low    string `json:"l"`
	Open   string `json:"o"`
	Prev   string `json:"y"`
	Volume string `json:"v"` // lots of 1000 shares
	Date   string `json:"d"` // YYYYMMDD
	Clock  string `json:"t"` // HH:MM:SS
}

// parseField parses a numeric MIS field. "-" and blanks mean absent.
func parseField(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}

func (s *TWSEQuoteSource) FetchQuote(ctx context.Context, code string) (*model.Quote, error) {
	q := url.Values{}
	q.Set("ex_ch", fmt.Sprintf("tse_%s.tw|otc_%s.tw", code, code))
	q.Set("json", "1")
	q.Set("delay", "0")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twse fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twse: status %d", resp.StatusCode)
	}

	var body twseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("twse decode: %w", err)
	}

	for _, row := range body.MsgArray {
		if row.Code != code {
			continue
		}
		return row.quote(), nil
	}
	return nil, fmt.Errorf("twse %s: %w", code, model.ErrQuoteUnavailable)
}

func (r twseRow) quote() *model.Quote {
	q := &model.Quote{}
	price, ok := parseField(r.Price)
	if !ok || price <= 0 {
		q.NoTrade = true
	}
	q.Price = price
	q.High, _ = parseField(r.High)
	q.Low, _ = parseField(r.Low)
	if lots, ok := parseField(r.Volume); ok {
		q.Volume = lots * 1000
	}
	if t, err := time.ParseInLocation("20060102 15:04:05", r.Date+" "+r.Clock, taipei); err == nil {
		q.Time = t
	}
	return q
}
