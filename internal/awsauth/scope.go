package awsauth

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
)

// ScopeKind says whose credentials a scope carries.
type ScopeKind string

const (
	ScopeLocal     ScopeKind = "local"
	ScopeDelegated ScopeKind = "delegated"
)

// Scope is the account context one operation runs in. A delegated scope always
// carries temporary credentials with an expiry. Scopes live for one
// operation only.
type Scope struct {
	Kind      ScopeKind
	AccountID string
	RoleARN   string
	Expires   time.Time
	Region    string
	Config    aws.Config
}

// Delegated reports whether the scope uses assumed-role credentials.
func (s *Scope) Delegated() bool {
	return s.Kind == ScopeDelegated
}

// CostExplorer builds a Cost Explorer client bound to the scope.
func (s *Scope) CostExplorer() *costexplorer.Client {
	return costexplorer.NewFromConfig(s.Config)
}

// Logs builds a CloudWatch Logs client bound to the scope.
func (s *Scope) Logs() *cloudwatchlogs.Client {
	return cloudwatchlogs.NewFromConfig(s.Config)
}
