package erp_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ruelux/pos/internal/order"
)

const testSID = "sid-test"

// fakeERP is a minimal Frappe-style resource API holding Sales Orders in
// memory. Writes that carry a stale modified stamp get 417, like Frappe's
// TimestampMismatchError.
type fakeERP struct {
	t *testing.T

	mu        sync.Mutex
	orders    map[string]order.Order
	version   int
	puts      int
	conflicts int
	// beforePut runs under the lock before a PUT is applied.
	beforePut func(name string)
}

func newFakeERP(t *testing.T, orders ...order.Order) (*fakeERP, *httptest.Server) {
	t.Helper()
	f := &fakeERP{t: t, orders: make(map[string]order.Order)}
	for _, o := range orders {
		f.version++
		o.Modified = fmt.Sprintf("v%d", f.version)
		f.orders[o.Name] = o
	}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeERP) serve(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/method/login":
		f.login(w, r)
		return
	case r.URL.Path == "/api/method/ping":
		writeBody(w, http.StatusOK, map[string]string{"message": "pong"})
		return
	}

	ck, err := r.Cookie("sid")
	if err != nil || ck.Value != testSID {
		writeBody(w, http.StatusForbidden, map[string]string{"exc_type": "PermissionError"})
		return
	}

	switch {
	case r.URL.Path == "/api/method/logout":
		writeBody(w, http.StatusOK, map[string]string{})
	case r.URL.Path == "/api/method/frappe.auth.get_logged_user":
		writeBody(w, http.StatusOK, map[string]string{"message": "chef@x.com"})
	case strings.HasPrefix(r.URL.Path, "/api/resource/User/"):
		writeBody(w, http.StatusOK, map[string]interface{}{
			"data": map[string]interface{}{
				"name":  "chef@x.com",
				"roles": []map[string]string{{"role": "Employee"}, {"role": "Chef"}},
			},
		})
	case r.URL.Path == "/api/resource/Sales Order":
		f.collection(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/resource/Sales Order/"):
		f.document(w, r, strings.TrimPrefix(r.URL.Path, "/api/resource/Sales Order/"))
	case r.URL.Path == "/api/resource/Item":
		writeBody(w, http.StatusOK, map[string]interface{}{"data": []map[string]interface{}{
			{"name": "PIZZA", "item_code": "PIZZA", "item_name": "Pizza", "item_group": "Consumable"},
		}})
	default:
		writeBody(w, http.StatusNotFound, map[string]string{"exc_type": "DoesNotExistError"})
	}
}

func (f *fakeERP) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		f.t.Errorf("parse login form: %v", err)
	}
	if r.PostForm.Get("usr") != "chef@x.com" || r.PostForm.Get("pwd") != "secret" {
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "Guest"})
		writeBody(w, http.StatusUnauthorized, map[string]string{"message": "Invalid login credentials"})
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "sid", Value: testSID})
	writeBody(w, http.StatusOK, map[string]string{"message": "Logged In", "full_name": "Carla Chef"})
}

func (f *fakeERP) collection(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		if got := r.URL.Query().Get("order_by"); got != "creation desc" {
			f.t.Errorf("order_by: got %q", got)
		}
		out := make([]order.Order, 0, len(f.orders))
		for _, o := range f.orders {
			out = append(out, o)
		}
		writeBody(w, http.StatusOK, map[string]interface{}{"data": out})
	case http.MethodPost:
		var p order.CreatePayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeBody(w, http.StatusBadRequest, map[string]string{"exc_type": "ValidationError"})
			return
		}
		f.version++
		o := order.Order{
			Name:          fmt.Sprintf("SAL-ORD-%04d", len(f.orders)+1),
			Customer:      p.Customer,
			Waiter:        p.Waiter,
			OrderType:     p.OrderType,
			TableNumber:   p.TableNumber,
			WorkflowState: "New",
			Modified:      fmt.Sprintf("v%d", f.version),
		}
		f.orders[o.Name] = o
		writeBody(w, http.StatusOK, map[string]interface{}{"data": o})
	}
}

func (f *fakeERP) document(w http.ResponseWriter, r *http.Request, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	o, ok := f.orders[name]
	if !ok {
		writeBody(w, http.StatusNotFound, map[string]string{"exc_type": "DoesNotExistError"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeBody(w, http.StatusOK, map[string]interface{}{"data": o})
	case http.MethodPut:
		f.puts++
		if f.beforePut != nil {
			f.beforePut(name)
			o = f.orders[name]
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeBody(w, http.StatusBadRequest, map[string]string{"exc_type": "ValidationError"})
			return
		}
		if m, ok := body["modified"].(string); ok && m != o.Modified {
			f.conflicts++
			writeBody(w, http.StatusExpectationFailed, map[string]string{"exc_type": "TimestampMismatchError"})
			return
		}
		if v, ok := body["workflow_state"].(string); ok {
			o.WorkflowState = v
		}
		if v, ok := body["custom_approval_digit"].(float64); ok {
			o.ApprovalDigit = int(v)
		}
		if v, ok := body["custom_approver"].(string); ok {
			o.Approver = v
		}
		f.version++
		o.Modified = fmt.Sprintf("v%d", f.version)
		f.orders[name] = o
		writeBody(w, http.StatusOK, map[string]interface{}{"data": o})
	}
}

// bump simulates another client editing the document. Callers hold f.mu.
func (f *fakeERP) bump(name string) {
	o := f.orders[name]
	f.version++
	o.Modified = fmt.Sprintf("v%d", f.version)
	f.orders[name] = o
}

func (f *fakeERP) counts() (puts, conflicts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts, f.conflicts
}

func (f *fakeERP) order(name string) order.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[name]
}

func writeBody(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
