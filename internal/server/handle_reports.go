package server

import (
	"net/http"
	"strconv"

	"github.com/scoutbase/matchscout/internal/scouting"
)

// ReportsResponse is the read boundary: stored reports plus per-robot
// averages recomputed from those reports on every read.
type ReportsResponse struct {
	Averages map[int]scouting.AverageTotals `json:"averages"`
	Reports  []StoredReport                 `json:"reports"`
}

func handleListReports(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventKey := r.URL.Query().Get("eventKey")
		if eventKey == "" {
			writeError(w, http.StatusBadRequest, "eventKey is required")
			return
		}
		matchKey := r.URL.Query().Get("matchKey")

		robot := 0
		if v := r.URL.Query().Get("robot"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "robot must be a positive team number")
				return
			}
			robot = n
		}

		reports, err := store.ListReports(r.Context(), eventKey, matchKey, robot)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		// Group by robot, reduce each report to totals, average per group.
		totalsByRobot := map[int][]scouting.ReportTotals{}
		for _, rec := range reports {
			totalsByRobot[rec.Robot] = append(totalsByRobot[rec.Robot], scouting.ComputeReportTotals(rec.Cycles))
		}

		averages := make(map[int]scouting.AverageTotals, len(totalsByRobot))
		for robot, totals := range totalsByRobot {
			averages[robot] = scouting.ComputeAverageMetrics(totals)
		}

		if reports == nil {
			reports = []StoredReport{}
		}
		writeJSON(w, http.StatusOK, ReportsResponse{Averages: averages, Reports: reports})
	}
}
