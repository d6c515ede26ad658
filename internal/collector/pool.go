package collector

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
)

const twseISINURL = "https://isin.twse.com.tw/isin/C_public.jsp?strMode=2"

// commonStockCFI is the CFI code the ISIN registry assigns to ordinary shares.
const commonStockCFI = "ESVUFR"

// PoolSource lists the instrument codes a scan walks through.
type PoolSource interface {
	Codes(ctx context.Context) ([]string, error)
}

// StaticPool is a fixed list of codes.
type StaticPool []string

func (p StaticPool) Codes(context.Context) ([]string, error) {
	out := make([]string, len(p))
	copy(out, p)
	return out, nil
}

// TWSEPool scrapes the listed common stocks from the TWSE ISIN registry page.
type TWSEPool struct {
	Client *http.Client
	URL    string
}

// NewTWSEPool creates a pool backed by the ISIN page. Empty url selects the default.
func NewTWSEPool(url, proxyURL string) *TWSEPool {
	if url == "" {
		url = twseISINURL
	}
	return &TWSEPool{
		Client: newHTTPClient(proxyURL, 60*time.Second),
		URL:    url,
	}
}

func (p *TWSEPool) Codes(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("isin fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("isin: status %d", resp.StatusCode)
	}

	body := transform.NewReader(resp.Body, traditionalchinese.Big5.NewDecoder())
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("isin parse: %w", err)
	}

	var codes []string
	seen := make(map[string]bool)
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 6 {
			return
		}
		if strings.TrimSpace(cells.Eq(5).Text()) != commonStockCFI {
			return
		}
		fields := strings.Fields(cells.Eq(0).Text())
		if len(fields) == 0 || !isStockCode(fields[0]) || seen[fields[0]] {
			return
		}
		seen[fields[0]] = true
		codes = append(codes, fields[0])
	})
	if len(codes) == 0 {
		return nil, fmt.Errorf("isin: no common stocks found")
	}
	return codes, nil
}

func isStockCode(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// CachedPool memoizes a pool listing.
type CachedPool struct {
	Source PoolSource
	cache  *Cache[[]string]
}

// NewCachedPool wraps src so the listing is refreshed at most once per ttl.
func NewCachedPool(src PoolSource, ttl time.Duration) *CachedPool {
	return &CachedPool{Source: src, cache: NewCache[[]string](ttl)}
}

func (p *CachedPool) Codes(ctx context.Context) ([]string, error) {
	if codes, ok := p.cache.Get("codes"); ok {
		return append([]string(nil), codes...), nil
	}
	codes, err := p.Source.Codes(ctx)
	if err != nil {
		return nil, err
	}
	p.cache.Set("codes", append([]string(nil), codes...))
	return codes, nil
}
