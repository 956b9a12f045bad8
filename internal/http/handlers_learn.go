package http

import (
	"net/http"

	"moneybuddy/internal/content"
)

type learnData struct {
	Page     string
	Articles []content.Article
	Closing  string
}

type adviceData struct {
	Page   string
	Advice content.Advice
}

func (s *Server) handleLearn(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireMethod(r, http.MethodGet); errResp != nil {
		errResp.Write(w)
		return
	}
	s.writePage(w, r, "learn.html", learnData{
		Page:     "learn",
		Articles: content.Articles(),
		Closing:  content.Closing,
	})
}

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireMethod(r, http.MethodGet); errResp != nil {
		errResp.Write(w)
		return
	}
	s.writePage(w, r, "advice.html", adviceData{Page: "advice", Advice: content.ExpertAdvice()})
}
