package erp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/ruelux/pos/internal/enum"
)

// adminRoleCount mirrors the ERP convention that only system managers hold
// this many roles.
const adminRoleCount = 40

// systemRoles are the ERP roles that map onto POS roles, in resolution order.
var systemRoles = []string{enum.RoleWaiter, enum.RoleCashier, enum.RoleChef, enum.RoleBartender}

// LoginResult is what a successful login yields.
type LoginResult struct {
	SessionID string
	FullName  string
}

// Login exchanges a credential pair for an ERP session id.
func (c *Client) Login(ctx context.Context, usr, pwd string) (LoginResult, error) {
	form := url.Values{}
	form.Set("usr", usr)
	form.Set("pwd", pwd)

	resp, data, err := c.send(ctx, request{
		op:          "login",
		method:      http.MethodPost,
		path:        "/method/login",
		body:        strings.NewReader(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
		anonymous:   true,
	})
	if err != nil {
		return LoginResult{}, err
	}

	var payload struct {
		Message  string `json:"message"`
		FullName string `json:"full_name"`
	}
	_ = json.Unmarshal(data, &payload)

	for _, ck := range resp.Cookies() {
		if ck.Name == sessionCookie && ck.Value != "" && ck.Value != "Guest" {
			return LoginResult{SessionID: ck.Value, FullName: payload.FullName}, nil
		}
	}
	return LoginResult{}, ErrUnauthorized
}

// Logout ends the ERP session carried by ctx.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, "logout", http.MethodPost, "/method/logout", nil, nil, nil)
}

// LoggedUser returns the email of the session owner.
func (c *Client) LoggedUser(ctx context.Context) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.doJSON(ctx, "logged_user", http.MethodGet, "/method/frappe.auth.get_logged_user", nil, nil, &resp); err != nil {
		return "", err
	}
	if resp.Message == "" || resp.Message == "Guest" {
		return "", ErrUnauthorized
	}
	return resp.Message, nil
}

// UserRoles lists the ERP role names held by email.
func (c *Client) UserRoles(ctx context.Context, email string) ([]string, error) {
	var resp struct {
		Data struct {
			Roles []struct {
				Role string `json:"role"`
			} `json:"roles"`
		} `json:"data"`
	}
	if err := c.doJSON(ctx, "user_roles", http.MethodGet, resourcePath("User", email), fieldsQuery("name", "roles"), nil, &resp); err != nil {
		return nil, err
	}
	roles := make([]string, 0, len(resp.Data.Roles))
	for _, r := range resp.Data.Roles {
		roles = append(roles, r.Role)
	}
	return roles, nil
}

// Ping checks ERP reachability without a session.
func (c *Client) Ping(ctx context.Context) error {
	_, _, err := c.send(ctx, request{op: "ping", method: http.MethodGet, path: "/method/ping", anonymous: true})
	return err
}

// ResolveRole picks the POS role for a set of ERP roles. It returns "" when
// none apply.
func ResolveRole(roles []string) string {
	if len(roles) > adminRoleCount {
		return enum.RoleAdmin
	}
	for _, r := range roles {
		switch r {
		case "System Manager", "Administrator", enum.RoleAdmin:
			return enum.RoleAdmin
		}
	}
	for _, r := range roles {
		for _, sys := range systemRoles {
			if r == sys {
				return sys
			}
		}
	}
	return ""
}
