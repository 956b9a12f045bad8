package http

import (
	"net/http"

	"moneybuddy/internal/goals"
	applog "moneybuddy/internal/log"
	"moneybuddy/internal/services"
)

type goalView struct {
	ID        string
	Name      string
	Target    string
	Current   string
	Remaining string
	Percent   float64
	Complete  bool
	Deadline  string
}

type goalsData struct {
	Page      string
	Goals     []goalView
	Templates []templateView
}

type templateView struct {
	Name   string
	Amount string
	Label  string
}

func newGoalViews(views []services.GoalView) []goalView {
	out := make([]goalView, len(views))
	for i, v := range views {
		gv := goalView{
			ID:        v.ID,
			Name:      v.Name,
			Target:    formatMoney(v.TargetAmount),
			Current:   formatMoney(v.CurrentAmount),
			Remaining: formatMoney(v.Progress.Remaining),
			Percent:   v.Progress.Percent,
			Complete:  v.Progress.Complete,
		}
		if v.Deadline != nil {
			gv.Deadline = v.Deadline.String()
		}
		out[i] = gv
	}
	return out
}

func (s *Server) goalsPage() goalsData {
	tpls := goals.Templates()
	tv := make([]templateView, len(tpls))
	for i, t := range tpls {
		tv[i] = templateView{Name: t.Name, Amount: t.Amount.String(), Label: formatMoney(t.Amount)}
	}
	return goalsData{
		Page:      "goals",
		Goals:     newGoalViews(s.svc.GoalViews()),
		Templates: tv,
	}
}

// handleGoals serves the goals page on GET and adds a goal on POST.
func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writePage(w, r, "goals.html", s.goalsPage())
	case http.MethodPost:
		s.handleCreateGoal(w, r)
	default:
		MethodNotAllowed(http.MethodGet, http.MethodPost).Write(w)
	}
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	if errResp := ParseFormOrFail(r); errResp != nil {
		errResp.Write(w)
		return
	}
	g, err := s.svc.AddGoal(r.Context(), ParseGoalForm(r.Form))
	if err != nil {
		s.writeServiceError(w, r, err, applog.OpCreate, "Could not save the goal")
		return
	}
	s.events.LogGoalChanged(r.Context(), applog.OpCreate, g.ID, g.Name)
	s.writePartial(w, r, "goal_list", s.goalsPage(), NewHTMXResponse().
		GoalsChanged().
		ResetForm().
		Notify(NoticeSuccess, "Goal added"))
}

// handleGoalProgress sets a goal's current amount. Invalid amounts and
// unknown ids leave the goals untouched and still answer 200.
func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}
	p, errResp := ParseBodyOrFail(r)
	if errResp != nil {
		errResp.Write(w)
		return
	}

	id := p.Get("id")
	updated, err := s.svc.UpdateGoalProgress(r.Context(), id, p.Get("amount"))
	if err != nil {
		s.writeServiceError(w, r, err, applog.OpUpdate, "Could not update the goal")
		return
	}

	resp := NewHTMXResponse()
	if updated {
		s.events.LogGoalChanged(r.Context(), applog.OpUpdate, id, "")
		resp.GoalsChanged().Notify(NoticeSuccess, "Progress updated")
	} else {
		resp.Notify(NoticeInfo, "Progress unchanged")
	}
	s.writePartial(w, r, "goal_list", s.goalsPage(), resp)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireDeleteOrPOST(r); errResp != nil {
		errResp.Write(w)
		return
	}
	p, errResp := ParseBodyOrFail(r)
	if errResp != nil {
		errResp.Write(w)
		return
	}

	id := p.Get("id")
	deleted, err := s.svc.DeleteGoal(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err, applog.OpDelete, "Could not delete the goal")
		return
	}

	resp := NewHTMXResponse()
	if deleted {
		s.events.LogGoalChanged(r.Context(), applog.OpDelete, id, "")
		resp.GoalsChanged().Notify(NoticeSuccess, "Goal deleted")
	} else {
		resp.Notify(NoticeInfo, "Goal not found")
	}
	s.writePartial(w, r, "goal_list", s.goalsPage(), resp)
}

type quickFillResponse struct {
	Name         string `json:"name"`
	TargetAmount string `json:"targetAmount"`
}

// handleGoalTemplate returns the add-goal pre-fill for a preset name.
func (s *Server) handleGoalTemplate(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireMethod(r, http.MethodGet); errResp != nil {
		errResp.Write(w)
		return
	}
	t, ok := goals.QuickFill(r.URL.Query().Get("name"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown template"})
		return
	}
	in := t.Input()
	writeJSON(w, http.StatusOK, quickFillResponse{Name: in.Name, TargetAmount: in.TargetAmount})
}

func (s *Server) handleGoalsAPI(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireMethod(r, http.MethodGet); errResp != nil {
		errResp.Write(w)
		return
	}
	views := s.svc.GoalViews()
	if views == nil {
		views = []services.GoalView{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"goals": views})
}
