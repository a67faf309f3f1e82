package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/doot/internal/models"
)

func TestEvaluate(t *testing.T) {
	customer := &models.User{ID: 1, Email: "buyer@example.com"}
	seller := &models.User{ID: 2, Email: "seller@example.com", IsSeller: true}
	staff := &models.User{ID: 3, Email: "staff@example.com", IsStaff: true}
	profile := &models.SellerProfile{ID: 10, BusinessName: "Acme"}

	tests := []struct {
		name    string
		session Session
		access  Access
		want    Decision
	}{
		{
			name:    "public view renders for anonymous",
			session: Session{},
			access:  Access{},
			want:    Decision{Action: Render},
		},
		{
			name:    "loading wins over everything",
			session: Session{IsLoading: true, IsAuthenticated: true, User: staff},
			access:  Access{RequireAuth: true, RequireAdmin: true},
			want:    Decision{Action: ShowLoading},
		},
		{
			name:    "auth required, anonymous redirects to login with return path",
			session: Session{},
			access:  Access{RequireAuth: true},
			want:    Decision{Action: Redirect, Target: TargetLogin, PreserveReturnPath: true},
		},
		{
			name:    "auth redirect target can be overridden",
			session: Session{},
			access:  Access{RequireAuth: true, RedirectTo: "/checkout/login"},
			want:    Decision{Action: Redirect, Target: "/checkout/login", PreserveReturnPath: true},
		},
		{
			name:    "auth required, authenticated renders",
			session: Session{IsAuthenticated: true, User: customer},
			access:  Access{RequireAuth: true},
			want:    Decision{Action: Render},
		},
		{
			name:    "seller gate, anonymous goes to login",
			session: Session{},
			access:  Access{RequireSeller: true},
			want:    Decision{Action: Redirect, Target: TargetLogin, PreserveReturnPath: true},
		},
		{
			name:    "seller gate admits on role flag even without profile",
			session: Session{IsAuthenticated: true, User: seller},
			access:  Access{RequireSeller: true},
			want:    Decision{Action: Render},
		},
		{
			name:    "seller gate admits on profile",
			session: Session{IsAuthenticated: true, User: customer, SellerProfile: profile},
			access:  Access{RequireSeller: true},
			want:    Decision{Action: Render},
		},
		{
			name:    "seller gate sends non-seller to profile creation",
			session: Session{IsAuthenticated: true, User: customer},
			access:  Access{RequireSeller: true},
			want:    Decision{Action: Redirect, Target: TargetCreateSellerProfile},
		},
		{
			name:    "admin gate, anonymous goes to login",
			session: Session{},
			access:  Access{RequireAdmin: true},
			want:    Decision{Action: Redirect, Target: TargetLogin, PreserveReturnPath: true},
		},
		{
			name:    "admin gate sends non-staff home without return path",
			session: Session{IsAuthenticated: true, User: customer},
			access:  Access{RequireAdmin: true},
			want:    Decision{Action: Redirect, Target: TargetHome},
		},
		{
			name:    "admin gate admits staff",
			session: Session{IsAuthenticated: true, User: staff},
			access:  Access{RequireAdmin: true},
			want:    Decision{Action: Render},
		},
		{
			name:    "nil user on admin gate redirects home",
			session: Session{IsAuthenticated: true},
			access:  Access{RequireAdmin: true},
			want:    Decision{Action: Redirect, Target: TargetHome},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.session, tt.access))
		})
	}
}
