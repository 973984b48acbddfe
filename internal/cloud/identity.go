package cloud

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/yiktol/apcr-dva/internal/publish"
)

// STSAPI is the subset of the STS client used by Identity.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, in *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Identity implements publish.IdentityService with STS GetCallerIdentity.
type Identity struct {
	client STSAPI
}

var _ publish.IdentityService = (*Identity)(nil)

// NewIdentity creates an Identity with the given client.
func NewIdentity(client STSAPI) *Identity {
	return &Identity{client: client}
}

// NewIdentityFromConfig creates an Identity from an AWS config.
func NewIdentityFromConfig(cfg aws.Config) *Identity {
	return NewIdentity(sts.NewFromConfig(cfg))
}

// AccountID returns the account of the calling principal.
func (i *Identity) AccountID(ctx context.Context) (string, error) {
	out, err := i.client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.Account), nil
}

// LoadConfig loads the default AWS credential chain for region.
// Credential acquisition itself is left entirely to the SDK.
func LoadConfig(ctx context.Context, region string) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx, config.WithRegion(region))
}
