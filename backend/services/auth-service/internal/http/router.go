package httpserver

import "net/http"

// Routes aggregates handlers for HTTP server.
type Routes struct {
	Signup         http.HandlerFunc
	Login          http.HandlerFunc
	Profile        http.HandlerFunc
	ChangePassword http.HandlerFunc
	CreateAccount  http.HandlerFunc
	DeleteAccount  http.HandlerFunc
	Health         http.HandlerFunc
}

// NewRouter wires all HTTP routes.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if routes.Signup != nil {
		mux.Handle("/auth/signup", method(http.MethodPost, routes.Signup))
	}
	if routes.Login != nil {
		mux.Handle("/auth/login", method(http.MethodPost, routes.Login))
	}
	if routes.Profile != nil {
		mux.Handle("/auth/profile", routes.Profile)
	}
	if routes.ChangePassword != nil {
		mux.Handle("/auth/password", method(http.MethodPost, routes.ChangePassword))
	}
	if routes.CreateAccount != nil {
		mux.Handle("/internal/accounts", method(http.MethodPost, routes.CreateAccount))
	}
	if routes.DeleteAccount != nil {
		mux.Handle("/internal/accounts/{id}", method(http.MethodDelete, routes.DeleteAccount))
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}
	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}
