// Package awsauth decides which AWS account a service call runs against. Calls
// either use the ambient identity or temporary credentials obtained by
// assuming a role in another account.
package awsauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/bgdnvk/spendwise/internal/logger"
)

// ErrResolution wraps every failure to produce a scope.
var ErrResolution = errors.New("credential resolution failed")

// SessionName is the role session name used for delegated scopes.
const SessionName = "CrossAccountSession"

var accountIDPattern = regexp.MustCompile(`^\d{12}$`)

// STSAPI is the subset of the STS client the resolver uses.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
	AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error)
}

// ConfigLoader loads the ambient AWS configuration for a region.
type ConfigLoader func(ctx context.Context, region string) (aws.Config, error)

// DefaultLoader loads the SDK default chain, optionally pinned to a shared
// config profile.
func DefaultLoader(profile string) ConfigLoader {
	return func(ctx context.Context, region string) (aws.Config, error) {
		opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
		if profile != "" {
			opts = append(opts, config.WithSharedConfigProfile(profile))
		}
		cfg, err := config.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return cfg, nil
	}
}

// Resolver produces a fresh Scope per call. Nothing is cached.
type Resolver struct {
	roleName string
	load     ConfigLoader
	newSTS   func(aws.Config) STSAPI
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSTS overrides how the STS client is built from the ambient config.
func WithSTS(fn func(aws.Config) STSAPI) Option {
	return func(r *Resolver) { r.newSTS = fn }
}

// WithLogger sets the logger used for delegation trace lines.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates a resolver that assumes roleName in foreign accounts.
func NewResolver(roleName string, load ConfigLoader, opts ...Option) *Resolver {
	r := &Resolver{
		roleName: roleName,
		load:     load,
		newSTS: func(cfg aws.Config) STSAPI {
			return sts.NewFromConfig(cfg)
		},
		logger: logger.For("awsauth"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RoleName returns the role assumed for delegated scopes.
func (r *Resolver) RoleName() string {
	return r.roleName
}

// Resolve returns the scope for targetAccountID in region. An empty target, or
// a target equal to the caller's own account, yields a local scope without
// any role assumption.
func (r *Resolver) Resolve(ctx context.Context, targetAccountID, region string) (*Scope, error) {
	targetAccountID = strings.TrimSpace(targetAccountID)
	if targetAccountID != "" && !accountIDPattern.MatchString(targetAccountID) {
		return nil, fmt.Errorf("%w: invalid account id %q", ErrResolution, targetAccountID)
	}

	base, err := r.load(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolution, err)
	}
	base.Region = region

	if targetAccountID == "" {
		r.logger.Info("using local credentials", "region", region)
		return &Scope{Kind: ScopeLocal, Region: region, Config: base}, nil
	}

	stsClient := r.newSTS(base)
	identity, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("%w: identity lookup: %v", ErrResolution, err)
	}
	callerAccount := aws.ToString(identity.Account)
	if callerAccount == targetAccountID {
		r.logger.Info("using local credentials", "account", callerAccount, "region", region)
		return &Scope{Kind: ScopeLocal, AccountID: callerAccount, Region: region, Config: base}, nil
	}

	roleARN := RoleARN(partitionOf(aws.ToString(identity.Arn)), targetAccountID, r.roleName)
	r.logger.Info("assuming cross-account role",
		"caller_account", callerAccount,
		"target_account", targetAccountID,
		"role_arn", roleARN,
	)

	assumed, err := stsClient.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(roleARN),
		RoleSessionName: aws.String(SessionName),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: assume role %s: %v", ErrResolution, roleARN, err)
	}
	creds := assumed.Credentials
	if creds == nil || aws.ToString(creds.AccessKeyId) == "" || aws.ToString(creds.SecretAccessKey) == "" || aws.ToString(creds.SessionToken) == "" {
		return nil, fmt.Errorf("%w: assume role %s returned incomplete credentials", ErrResolution, roleARN)
	}
	expires := aws.ToTime(creds.Expiration)
	if expires.IsZero() || !expires.After(r.now()) {
		return nil, fmt.Errorf("%w: assume role %s returned expired credentials", ErrResolution, roleARN)
	}

	delegated := base.Copy()
	delegated.Credentials = credentials.NewStaticCredentialsProvider(
		aws.ToString(creds.AccessKeyId),
		aws.ToString(creds.SecretAccessKey),
		aws.ToString(creds.SessionToken),
	)

	return &Scope{
		Kind:      ScopeDelegated,
		AccountID: targetAccountID,
		RoleARN:   roleARN,
		Expires:   expires,
		Region:    region,
		Config:    delegated,
	}, nil
}

// CallerAccount returns the account id of the ambient identity.
func (r *Resolver) CallerAccount(ctx context.Context, region string) (string, error) {
	base, err := r.load(ctx, region)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrResolution, err)
	}
	base.Region = region
	identity, err := r.newSTS(base).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("%w: identity lookup: %v", ErrResolution, err)
	}
	return aws.ToString(identity.Account), nil
}

// RoleARN builds the IAM role ARN for role in account.
func RoleARN(partition, account, role string) string {
	if partition == "" {
		partition = "aws"
	}
	return arn.ARN{
		Partition: partition,
		Service:   "iam",
		AccountID: account,
		Resource:  "role/" + role,
	}.String()
}

func partitionOf(callerARN string) string {
	parsed, err := arn.Parse(callerARN)
	if err != nil {
		return "aws"
	}
	return parsed.Partition
}
