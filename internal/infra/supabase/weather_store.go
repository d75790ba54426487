package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/domain"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/infra/resilience"
)

// weatherRow maps the daily_weather table columns.
type weatherRow struct {
	Date            string  `json:"date"`
	TempC           float64 `json:"temp_c"`
	HumidityPct     float64 `json:"humidity_pct"`
	PrecipitationMM float64 `json:"precipitation_mm"`
}

// ListDailyWeather fetches daily weather observations within the optional
// date range, ordered by date ascending.
func (c *Client) ListDailyWeather(ctx context.Context, from, to *time.Time) ([]domain.DailyWeather, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListDailyWeather")
	defer span.End()

	path := "daily_weather?order=date.asc"
	if from != nil {
		path += "&date=gte." + url.QueryEscape(from.Format("2006-01-02"))
	}
	if to != nil {
		path += "&date=lte." + url.QueryEscape(to.Format("2006-01-02"))
	}

	var days []domain.DailyWeather

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				days = []domain.DailyWeather{}
				return nil
			}

			var rows []weatherRow
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode weather: %w", err)
			}

			days = make([]domain.DailyWeather, 0, len(rows))
			for _, r := range rows {
				days = append(days, domain.DailyWeather{
					Date:            r.Date,
					TempC:           r.TempC,
					HumidityPct:     r.HumidityPct,
					PrecipitationMM: r.PrecipitationMM,
				})
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/weather", Err: err}
	}

	return days, nil
}
