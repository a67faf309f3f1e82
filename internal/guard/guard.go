// Package guard decides whether a protected view may render. It is a pure
// function over session state; it holds no state of its own.
package guard

import "github.com/example/doot/internal/models"

// Redirect targets.
const (
	TargetLogin               = "/login"
	TargetHome                = "/"
	TargetCreateSellerProfile = "/seller/profile/create"
)

// Session is the slice of session-store state the guard consumes.
type Session struct {
	IsAuthenticated bool
	IsLoading       bool
	User            *models.User
	SellerProfile   *models.SellerProfile
}

// Access is the requested access level for a view.
type Access struct {
	RequireAuth   bool
	RequireSeller bool
	RequireAdmin  bool
	// RedirectTo overrides the login target for RequireAuth redirects.
	RedirectTo string
}

// Action is what the view layer should do.
type Action int

const (
	Render Action = iota
	Redirect
	ShowLoading
)

// Decision is the guard's verdict. PreserveReturnPath tells the view layer to
// carry the originally requested location through the redirect so the user
// lands back there after login.
type Decision struct {
	Action             Action
	Target             string
	PreserveReturnPath bool
}

func render() Decision      { return Decision{Action: Render} }
func showLoading() Decision { return Decision{Action: ShowLoading} }

func redirect(target string, preserveReturn bool) Decision {
	return Decision{Action: Redirect, Target: target, PreserveReturnPath: preserveReturn}
}

// Evaluate applies the guard rules in precedence order: loading, then auth,
// then seller, then admin. The seller gate admits on the role flag even
// before the profile has loaded; an authenticated user with neither flag nor
// profile is sent to profile creation.
func Evaluate(s Session, req Access) Decision {
	if s.IsLoading {
		return showLoading()
	}

	if req.RequireAuth && !s.IsAuthenticated {
		target := req.RedirectTo
		if target == "" {
			target = TargetLogin
		}
		return redirect(target, true)
	}

	if req.RequireSeller {
		if !s.IsAuthenticated {
			return redirect(TargetLogin, true)
		}
		if s.User != nil && s.User.IsSeller {
			return render()
		}
		if s.SellerProfile == nil {
			return redirect(TargetCreateSellerProfile, false)
		}
	}

	if req.RequireAdmin {
		if !s.IsAuthenticated {
			return redirect(TargetLogin, true)
		}
		if s.User == nil || !s.User.IsStaff {
			return redirect(TargetHome, false)
		}
	}

	return render()
}
