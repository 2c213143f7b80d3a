package httpserver

import (
	"net/http"
	"sort"
	"strings"
)

// Resource groups the handlers of one REST collection.
type Resource struct {
	List   http.HandlerFunc
	Create http.HandlerFunc
	Get    http.HandlerFunc
	Update http.HandlerFunc
	Delete http.HandlerFunc
}

// Routes groups handlers.
type Routes struct {
	Vehicles          Resource
	Customers         Resource
	Developers        Resource
	ClaimableCustomer http.HandlerFunc
	ClaimCustomer     http.HandlerFunc
	Dashboard         http.HandlerFunc
	Health            http.HandlerFunc
}

// NewRouter registers endpoints.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	register(mux, "/vehicles", routes.Vehicles)
	register(mux, "/customers", routes.Customers)
	register(mux, "/developers", routes.Developers)
	if routes.ClaimableCustomer != nil {
		mux.Handle("/customers/claimable", method(http.MethodGet, routes.ClaimableCustomer))
	}
	if routes.ClaimCustomer != nil {
		mux.Handle("/customers/{id}/claim", method(http.MethodPost, routes.ClaimCustomer))
	}
	if routes.Dashboard != nil {
		mux.Handle("/dashboard", method(http.MethodGet, routes.Dashboard))
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}
	return mux
}

func register(mux *http.ServeMux, path string, res Resource) {
	collection := map[string]http.HandlerFunc{}
	if res.List != nil {
		collection[http.MethodGet] = res.List
	}
	if res.Create != nil {
		collection[http.MethodPost] = res.Create
	}
	item := map[string]http.HandlerFunc{}
	if res.Get != nil {
		item[http.MethodGet] = res.Get
	}
	if res.Update != nil {
		item[http.MethodPut] = res.Update
	}
	if res.Delete != nil {
		item[http.MethodDelete] = res.Delete
	}
	if len(collection) > 0 {
		mux.Handle(path, methods(collection))
	}
	if len(item) > 0 {
		mux.Handle(path+"/{id}", methods(item))
	}
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return methods(map[string]http.HandlerFunc{expected: handler})
}

func methods(handlers map[string]http.HandlerFunc) http.HandlerFunc {
	allowed := make([]string, 0, len(handlers))
	for m := range handlers {
		allowed = append(allowed, m)
	}
	sort.Strings(allowed)
	allow := strings.Join(allowed, ", ")

	return func(w http.ResponseWriter, r *http.Request) {
		handler, ok := handlers[r.Method]
		if !ok {
			w.Header().Set("Allow", allow)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}
