// Package geocode reverse-geocodes melding locations through the PDOK
// Locatieserver. Address metadata is enrichment only and never gates a
// transition; callers tolerate a nil resolver and any lookup failure.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Amsterdam/meldingen-sub000/internal/platform/envutil"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
)

type Address struct {
	Street      string
	HouseNumber string
	Postcode    string
	City        string
}

type Resolver interface {
	Resolve(ctx context.Context, lat, lon float64) (*Address, error)
}

type pdokResolver struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
}

func NewPDOKResolver(log *logger.Logger) Resolver {
	return &pdokResolver{
		log:     log.With("client", "PDOKResolver"),
		baseURL: envutil.String("GEOCODER_BASE_URL", "https://api.pdok.nl/bzk/locatieserver/search/v3_1"),
		httpClient: &http.Client{
			Timeout: time.Duration(envutil.Int("GEOCODER_TIMEOUT_SECONDS", 5)) * time.Second,
		},
	}
}

type pdokResponse struct {
	Response struct {
		Docs []struct {
			Straatnaam     string      `json:"straatnaam"`
			Huisnummer     json.Number `json:"huisnummer"`
			Postcode       string      `json:"postcode"`
			Woonplaatsnaam string      `json:"woonplaatsnaam"`
		} `json:"docs"`
	} `json:"response"`
}

func (r *pdokResolver) Resolve(ctx context.Context, lat, lon float64) (*Address, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lon))
	q.Set("type", "adres")
	q.Set("rows", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pdok reverse lookup: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pdok reverse lookup: http %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var parsed pdokResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("pdok reverse lookup: %w", err)
	}
	if len(parsed.Response.Docs) == 0 {
		return nil, nil
	}
	doc := parsed.Response.Docs[0]
	return &Address{
		Street:      doc.Straatnaam,
		HouseNumber: doc.Huisnummer.String(),
		Postcode:    doc.Postcode,
		City:        doc.Woonplaatsnaam,
	}, nil
}
