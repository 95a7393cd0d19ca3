package upstream

import (
	"fmt"
	"net/http"
	"net/url"

	"duoadmin/domain/action"
	"duoadmin/domain/entity"
)

type resource struct {
	list   string
	detail string // fmt pattern taking the id
	base   string // CRUD base
}

var resources = map[entity.Entity]resource{
	entity.User:       {list: "/users", detail: "/users/%s", base: "/users"},
	entity.Game:       {list: "/games", detail: "/games/%s", base: "/games"},
	entity.Order:      {list: "/orders/summary", detail: "/orders/detail/%s", base: "/orders"},
	entity.Gamer:      {list: "/game-players/summary", detail: "/game-players/%s", base: "/game-players"},
	entity.Report:     {list: "/reports", detail: "/reports/%s", base: "/reports"},
	entity.Deposit:    {list: "/payments/topups", detail: "/payments/topups/%s", base: "/payments/topups"},
	entity.Withdrawal: {list: "/payments/withdrawals", detail: "/payments/withdrawals/%s", base: "/payments/withdrawals"},
}

func listPath(e entity.Entity) (string, error) {
	r, ok := resources[e]
	if !ok {
		return "", fmt.Errorf("no upstream collection for %q", e)
	}
	return r.list, nil
}

func detailPath(e entity.Entity, id string) (string, error) {
	r, ok := resources[e]
	if !ok {
		return "", fmt.Errorf("no upstream collection for %q", e)
	}
	return fmt.Sprintf(r.detail, url.PathEscape(id)), nil
}

// stepRoute maps a planned step to its upstream method and path.
func stepRoute(s action.Step) (method, path string, err error) {
	id := url.PathEscape(s.TargetID)
	switch s.Op {
	case action.OpBanPlayer:
		return http.MethodPost, "/game-players/ban/" + id, nil
	case action.OpUnbanPlayer:
		return http.MethodPost, "/game-players/unban/" + id, nil
	case action.OpLockUser:
		return http.MethodPost, "/users/" + id + "/lock", nil
	case action.OpUnlockUser:
		return http.MethodPost, "/users/" + id + "/unlock", nil
	case action.OpSetRoles:
		return http.MethodPut, "/users/" + id + "/roles", nil
	case action.OpSetReportStatus:
		return http.MethodPut, "/reports/" + id + "/status", nil
	}

	r, ok := resources[s.Entity]
	if !ok {
		return "", "", fmt.Errorf("no upstream collection for %q", s.Entity)
	}
	switch s.Op {
	case action.OpDelete:
		return http.MethodDelete, r.base + "/" + id, nil
	case action.OpUpdate:
		return http.MethodPut, r.base + "/" + id, nil
	case action.OpCreate:
		return http.MethodPost, r.base, nil
	}
	return "", "", fmt.Errorf("unknown upstream operation %q", s.Op)
}
