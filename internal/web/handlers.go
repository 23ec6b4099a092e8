package web

import (
	"errors"
	"net/http"

	"donationRegistry/internal/app"
	"donationRegistry/internal/auth"
)

const (
	msgLoginRequired   = "Você precisa estar logado para acessar essa página."
	msgLoginInvalid    = "Login inválido."
	msgTooManyAttempts = "Muitas tentativas de login. Aguarde um minuto."
	msgLoggedOut       = "Você saiu do sistema."
	msgFillAll         = "Preencha todos os campos."
	msgPasswordsDiffer = "As senhas não coincidem."
	msgRegistered      = "Cadastro realizado com sucesso! Faça login."
	msgUsernameTaken   = "Nome de usuário já existe."
	msgRegisterFailed  = "Erro ao cadastrar usuário."
	msgDonationSaved   = "Doação cadastrada com sucesso!"
	msgInvalidQuantity = "A quantidade deve ser um número inteiro positivo."
	msgDonationFailed  = "Erro ao cadastrar doação."
)

func (s *Server) denyAnonymous(w http.ResponseWriter, r *http.Request) {
	redirectWithFlash(w, r, "/login", "warning", msgLoginRequired)
}

func (s *Server) loginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login", "Entrar", loginData{})
}

func (s *Server) loginSubmit(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow(clientKey(r)) {
		s.recordLogin("throttled")
		s.render(w, r, http.StatusTooManyRequests, "login", "Entrar", loginData{Error: msgTooManyAttempts})
		return
	}
	u, _, err := s.sessions.Login(w, r, s.users, r.PostFormValue("usuario"), r.PostFormValue("senha"))
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.recordLogin("invalid")
		s.render(w, r, http.StatusOK, "login", "Entrar", loginData{Error: msgLoginInvalid})
	case err != nil:
		s.recordLogin("error")
		s.fault(w, r, err)
	default:
		s.recordLogin("success")
		s.requestLog(r).WithField("username", u.Username).Info("login")
		redirectWithFlash(w, r, "/dashboard", "success", "Bem-vindo(a), "+u.Name+"!")
	}
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	_, err := s.svc.Register(r.Context(), app.RegisterInput{
		Name:            r.PostFormValue("nome_completo"),
		Username:        r.PostFormValue("usuario"),
		Email:           r.PostFormValue("email"),
		CPF:             r.PostFormValue("cpf"),
		Password:        r.PostFormValue("senha"),
		ConfirmPassword: r.PostFormValue("confirm_senha"),
	})
	switch {
	case err == nil:
		redirectWithFlash(w, r, "/login", "success", msgRegistered)
	case errors.Is(err, app.ErrMissingFields):
		redirectWithFlash(w, r, "/login", "danger", msgFillAll)
	case errors.Is(err, app.ErrPasswordMismatch):
		redirectWithFlash(w, r, "/login", "danger", msgPasswordsDiffer)
	case errors.Is(err, app.ErrDuplicateUsername):
		redirectWithFlash(w, r, "/login", "danger", msgUsernameTaken)
	default:
		redirectWithFlash(w, r, "/login", "danger", msgRegisterFailed)
	}
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.sessions.End(w, r)
	redirectWithFlash(w, r, "/login", "info", msgLoggedOut)
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "index", "Início", nil)
}

func (s *Server) donationForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "cadastrar", "Cadastrar doação", nil)
}

func (s *Server) donationSubmit(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.FromContext(r.Context())
	_, err := s.svc.CreateDonation(r.Context(), sess, app.DonationInput{
		DonorName: r.PostFormValue("nome"),
		Item:      r.PostFormValue("item"),
		Quantity:  r.PostFormValue("quantidade"),
		Location:  r.PostFormValue("localizacao"),
	})
	switch {
	case err == nil:
		redirectWithFlash(w, r, "/lista", "success", msgDonationSaved)
	case errors.Is(err, app.ErrUnauthenticated):
		s.denyAnonymous(w, r)
	case errors.Is(err, app.ErrMissingFields):
		redirectWithFlash(w, r, "/cadastrar", "danger", msgFillAll)
	case errors.Is(err, app.ErrInvalidQuantity):
		redirectWithFlash(w, r, "/cadastrar", "danger", msgInvalidQuantity)
	default:
		s.requestLog(r).WithError(err).Error("create donation")
		redirectWithFlash(w, r, "/cadastrar", "danger", msgDonationFailed)
	}
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.FromContext(r.Context())
	donations, err := s.svc.ListDonations(r.Context(), sess)
	if err != nil {
		s.gatedFault(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "lista", "Doações", donations)
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.FromContext(r.Context())
	stats, err := s.svc.Dashboard(r.Context(), sess)
	if err != nil {
		s.gatedFault(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "dashboard", "Dashboard", stats)
}

func (s *Server) gatedFault(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, app.ErrUnauthenticated) {
		s.denyAnonymous(w, r)
		return
	}
	s.fault(w, r, err)
}

func (s *Server) recordLogin(result string) {
	if s.metrics != nil {
		s.metrics.RecordLogin(result)
	}
}
