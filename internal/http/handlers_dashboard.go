package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"fieldlog/internal/core"
	"fieldlog/internal/log"
	"fieldlog/internal/metrics"
	"fieldlog/internal/report"
)

// handleDashboard returns the dashboard for ?period=month|30d|all. Unknown
// periods fall back to the current month.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	company, ok := companyFromPath(w, r)
	if !ok {
		return
	}
	mode := core.ParsePeriodMode(r.URL.Query().Get("period"))

	d, err := s.getDashboard(r.Context(), company, mode, s.today())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Dashboard failed",
			log.FieldCompany, company, log.FieldPeriod, mode, log.FieldError, err)
		writeServiceError(w, err)
		return
	}
	NewResponse().JSON(d).Write(w)
}

func dashboardKey(company core.CompanyID, mode core.PeriodMode, today core.Date) string {
	return string(company) + "|" + string(mode) + "|" + today.String()
}

// getDashboard serves from cache, collapsing concurrent misses for the same
// key into one load. A load that overlapped a mutation is returned but not
// cached.
func (s *Server) getDashboard(ctx context.Context, company core.CompanyID, mode core.PeriodMode, today core.Date) (report.Dashboard, error) {
	key := dashboardKey(company, mode, today)
	if d, found := s.dashboardCache.Get(key); found {
		metrics.DashboardCache(true)
		return d, nil
	}
	metrics.DashboardCache(false)

	v, err, _ := s.dashboardLoads.Do(key, func() (any, error) {
		gen := s.generation(company)
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 7*time.Second)
		defer cancel()

		d, err := s.records.Dashboard(cctx, company, mode, today)
		if err != nil {
			return report.Dashboard{}, err
		}
		if s.generation(company) == gen {
			s.dashboardCache.Set(key, d)
		}
		return d, nil
	})
	if err != nil {
		return report.Dashboard{}, err
	}
	return v.(report.Dashboard), nil
}

// handleExportCSV serves /export/{COMPANY}.csv as a download with a BOM.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	name, found := strings.CutSuffix(r.PathValue("file"), ".csv")
	if !found {
		NotFoundError("not found").Write(w)
		return
	}
	company, err := core.ParseCompany(name)
	if err != nil {
		NotFoundError("unknown company").Write(w)
		return
	}

	text, err := s.records.ExportCSV(r.Context(), company)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "CSV export failed",
			log.FieldCompany, company, log.FieldOperation, log.OpExport, log.FieldError, err)
		writeServiceError(w, err)
		return
	}

	s.logger.InfoContext(r.Context(), "CSV exported",
		log.FieldCompany, company, log.FieldOperation, log.OpExport, "bytes", len(text))
	NewResponse().
		Attachment(report.ExportFilename(company), "text/csv; charset=utf-8").
		Body(report.FileBytes(text)).
		Write(w)
}
