// Package api serves a finished run's tables as read-only JSON for dashboards.
package api

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"energyetl/internal/enrich"
	"energyetl/internal/records"
)

// Dataset is what the router serves. It is never mutated after NewRouter.
type Dataset struct {
	RunID   string
	Table   records.Table
	Summary []enrich.YearSummary
	Quality enrich.QualityReport
}

// Country is one entry of /api/countries.
type Country struct {
	ISOCode   string `json:"iso_code"`
	Country   string `json:"country"`
	Continent string `json:"continent"`
	Region    string `json:"region"`
	Records   int    `json:"records"`
	FirstYear int    `json:"first_year"`
	LastYear  int    `json:"last_year"`
}

type server struct {
	ds        Dataset
	cols      []records.Column
	byISO     map[string][]int
	byYear    map[int][]int
	countries []Country
}

// NewRouter indexes ds and returns the API handler. metricsHandler, when
// non-nil, is mounted at /metrics.
func NewRouter(ds Dataset, metricsHandler http.Handler) http.Handler {
	s := newServer(ds)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/summary", s.summary)
		r.Get("/quality", s.quality)
		r.Get("/countries", s.listCountries)
		r.Get("/countries/{iso}", s.country)
		r.Get("/years/{year}", s.year)
	})
	return r
}

func newServer(ds Dataset) *server {
	s := &server{
		ds:     ds,
		cols:   records.OutputColumns(ds.Table, records.TextColumns(ds.Table)),
		byISO:  make(map[string][]int),
		byYear: make(map[int][]int),
	}
	for i, rec := range ds.Table.Records {
		s.byISO[rec.ISOCode] = append(s.byISO[rec.ISOCode], i)
		s.byYear[rec.Year] = append(s.byYear[rec.Year], i)
	}

	for iso, idx := range s.byISO {
		first := ds.Table.Records[idx[0]]
		c := Country{
			ISOCode:   iso,
			Country:   first.Country,
			Continent: first.Continent,
			Region:    first.Region,
			Records:   len(idx),
			FirstYear: first.Year,
			LastYear:  first.Year,
		}
		for _, i := range idx[1:] {
			y := ds.Table.Records[i].Year
			if y < c.FirstYear {
				c.FirstYear = y
			}
			if y > c.LastYear {
				c.LastYear = y
			}
		}
		s.countries = append(s.countries, c)
	}
	sort.Slice(s.countries, func(i, j int) bool { return s.countries[i].ISOCode < s.countries[j].ISOCode })
	return s
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":  "ok",
		"run_id":  s.ds.RunID,
		"records": s.ds.Table.Len(),
	})
}

func (s *server) summary(w http.ResponseWriter, r *http.Request) {
	out := s.ds.Summary
	if out == nil {
		out = []enrich.YearSummary{}
	}
	render.JSON(w, r, out)
}

func (s *server) quality(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.ds.Quality)
}

func (s *server) listCountries(w http.ResponseWriter, r *http.Request) {
	out := s.countries
	if out == nil {
		out = []Country{}
	}
	render.JSON(w, r, out)
}

func (s *server) country(w http.ResponseWriter, r *http.Request) {
	iso := strings.ToUpper(chi.URLParam(r, "iso"))
	idx, ok := s.byISO[iso]
	if !ok {
		writeError(w, r, http.StatusNotFound, "unknown iso_code "+strconv.Quote(iso))
		return
	}
	render.JSON(w, r, s.rows(idx))
}

func (s *server) year(w http.ResponseWriter, r *http.Request) {
	y, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "year must be an integer")
		return
	}
	idx, ok := s.byYear[y]
	if !ok {
		writeError(w, r, http.StatusNotFound, "no records for year "+strconv.Itoa(y))
		return
	}
	render.JSON(w, r, s.rows(idx))
}

// rows renders the records at idx as column-keyed objects.
func (s *server) rows(idx []int) []map[string]any {
	out := make([]map[string]any, 0, len(idx))
	for _, i := range idx {
		vals := s.ds.Table.Records[i].Values(s.cols)
		m := make(map[string]any, len(s.cols))
		for j, c := range s.cols {
			m[c.Name] = vals[j]
		}
		out = append(out, m)
	}
	return out
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": msg})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Duration("took", time.Since(start)),
		)
	})
}
