// Package request carries per-request flags on a context.Context: whether
// the request is asynchronous, which admin action it performs, and
// whether the acting user may post unfiltered HTML.
package request

import (
	"context"

	"github.com/google/uuid"
)

// ActionAddTerm is the asynchronous "add term" admin action. Terms fetched
// while it runs are returned undecorated.
const ActionAddTerm = "add-tag"

// Info describes the request being served.
type Info struct {
	ID             string
	Action         string
	Async          bool
	UnfilteredHTML bool
}

type ctxKey struct{}

// With returns a copy of ctx carrying info. An empty ID is filled with a
// fresh UUID v7.
func With(ctx context.Context, info Info) context.Context {
	if info.ID == "" {
		info.ID = newID()
	}
	return context.WithValue(ctx, ctxKey{}, info)
}

// FromContext returns the Info stored on ctx, or the zero Info.
func FromContext(ctx context.Context) Info {
	if ctx == nil {
		return Info{}
	}
	info, _ := ctx.Value(ctxKey{}).(Info)
	return info
}

// IsAsync reports whether ctx belongs to an asynchronous request.
func IsAsync(ctx context.Context) bool {
	return FromContext(ctx).Async
}

// DoingAction reports whether ctx belongs to an asynchronous request
// performing action.
func DoingAction(ctx context.Context, action string) bool {
	info := FromContext(ctx)
	return info.Async && info.Action == action
}

// CanUnfilteredHTML reports whether the acting user may post raw HTML.
func CanUnfilteredHTML(ctx context.Context) bool {
	return FromContext(ctx).UnfilteredHTML
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
