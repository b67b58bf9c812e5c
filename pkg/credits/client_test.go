package credits_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossapp/crossapp-go/pkg/api"
	"github.com/crossapp/crossapp-go/pkg/credits"
)

// fakeAPI counts calls so tests can assert that fail-fast paths make zero
// network requests.
type fakeAPI struct {
	calls int

	balance      *api.CreditBalance
	balanceErr   error
	consumption  *api.CreditConsumption
	consumeErr   error
	purchase     *api.CreditPurchase
	purchaseErr  error
	packages     []api.CreditPackage
	packagesErr  error
	subs         []api.UserSubscription
	subscribeErr error
}

func (f *fakeAPI) CreditBalance(ctx context.Context, token string, required float64) (*api.CreditBalance, error) {
	f.calls++
	return f.balance, f.balanceErr
}

func (f *fakeAPI) ConsumeCredits(ctx context.Context, token string, req api.ConsumeRequest) (*api.CreditConsumption, error) {
	f.calls++
	return f.consumption, f.consumeErr
}

func (f *fakeAPI) PurchaseCredits(ctx context.Context, token string, req api.PurchaseRequest) (*api.CreditPurchase, error) {
	f.calls++
	return f.purchase, f.purchaseErr
}

func (f *fakeAPI) CreditPackages(ctx context.Context, token string) ([]api.CreditPackage, error) {
	f.calls++
	return f.packages, f.packagesErr
}

func (f *fakeAPI) CreditSubscriptions(ctx context.Context, token string) ([]api.UserSubscription, error) {
	f.calls++
	return f.subs, f.subscribeErr
}

type fakeTokens struct {
	authenticated bool
	token         string
}

func (f *fakeTokens) IsAuthenticated() bool { return f.authenticated }
func (f *fakeTokens) SessionToken() string  { return f.token }

func TestClient_FailsFastWhenUnauthenticated(t *testing.T) {
	ctx := context.Background()
	server := &fakeAPI{}
	client := credits.New(server, &fakeTokens{authenticated: false})

	_, err := client.Consume(ctx, 5, "video-gen")
	assert.True(t, api.IsCode(err, api.CodeNoSession))

	_, err = client.Balance(ctx, 0)
	assert.True(t, api.IsCode(err, api.CodeNoSession))

	_, err = client.Purchase(ctx, api.PurchaseRequest{PackageID: "pro"})
	assert.True(t, api.IsCode(err, api.CodeNoSession))

	_, err = client.Packages(ctx)
	assert.True(t, api.IsCode(err, api.CodeNoSession))

	_, err = client.Subscriptions(ctx)
	assert.True(t, api.IsCode(err, api.CodeNoSession))

	assert.Zero(t, server.calls, "unauthenticated calls must not reach the network")
}

func TestClient_Consume(t *testing.T) {
	ctx := context.Background()
	tokens := &fakeTokens{authenticated: true, token: "tok"}

	t.Run("returns receipt", func(t *testing.T) {
		server := &fakeAPI{consumption: &api.CreditConsumption{ID: "rcpt-1", Credits: 5, RemainingCredits: 15}}
		client := credits.New(server, tokens)

		receipt, err := client.Consume(ctx, 5, "video-gen", credits.WithDescription("render"))
		require.NoError(t, err)
		assert.Equal(t, "rcpt-1", receipt.ID)
		assert.Equal(t, 1, server.calls)
	})

	t.Run("server error surfaces verbatim", func(t *testing.T) {
		serverErr := api.NewError(api.CodeCreditsFailed, "insufficient credits")
		server := &fakeAPI{consumeErr: serverErr}
		client := credits.New(server, tokens)

		_, err := client.Consume(ctx, 5, "video-gen")
		assert.Equal(t, serverErr, err)
	})
}

func TestClient_HasSufficientCredits(t *testing.T) {
	ctx := context.Background()
	tokens := &fakeTokens{authenticated: true, token: "tok"}

	t.Run("true when server allows", func(t *testing.T) {
		server := &fakeAPI{balance: &api.CreditBalance{CurrentCredits: 20, CanConsume: true}}
		client := credits.New(server, tokens)
		assert.True(t, client.HasSufficientCredits(ctx, 5))
	})

	t.Run("degrades to false on error", func(t *testing.T) {
		server := &fakeAPI{balanceErr: api.NewError(api.CodeNetwork, "")}
		client := credits.New(server, tokens)
		assert.False(t, client.HasSufficientCredits(ctx, 5))
	})

	t.Run("degrades to false when unauthenticated", func(t *testing.T) {
		server := &fakeAPI{}
		client := credits.New(server, &fakeTokens{})
		assert.False(t, client.HasSufficientCredits(ctx, 5))
		assert.Zero(t, server.calls)
	})
}

func TestClient_QuickCheck(t *testing.T) {
	ctx := context.Background()
	tokens := &fakeTokens{authenticated: true, token: "tok"}

	t.Run("can proceed", func(t *testing.T) {
		server := &fakeAPI{balance: &api.CreditBalance{CurrentCredits: 30, CanConsume: true}}
		client := credits.New(server, tokens)

		result := client.QuickCheck(ctx, 5)
		assert.True(t, result.CanProceed)
		assert.Equal(t, 30.0, result.CurrentCredits)
		assert.Zero(t, result.Deficit)
		assert.Nil(t, result.SuggestedPackage)
	})

	t.Run("shortfall suggests a covering package", func(t *testing.T) {
		server := &fakeAPI{
			balance: &api.CreditBalance{CurrentCredits: 30, CanConsume: false},
			packages: []api.CreditPackage{
				{ID: "A", CreditAmount: 10},
				{ID: "B", CreditAmount: 50},
			},
		}
		client := credits.New(server, tokens)

		result := client.QuickCheck(ctx, 50)
		assert.False(t, result.CanProceed)
		assert.Equal(t, 30.0, result.CurrentCredits)
		assert.Equal(t, 20.0, result.Deficit)
		require.NotNil(t, result.SuggestedPackage)
		assert.Equal(t, "B", result.SuggestedPackage.ID)
	})

	t.Run("degrades instead of failing", func(t *testing.T) {
		server := &fakeAPI{balanceErr: api.NewError(api.CodeNetwork, "")}
		client := credits.New(server, tokens)

		result := client.QuickCheck(ctx, 7)
		assert.False(t, result.CanProceed)
		assert.Zero(t, result.CurrentCredits)
		assert.Equal(t, 7.0, result.Deficit)
	})

	t.Run("catalog failure still reports the shortfall", func(t *testing.T) {
		server := &fakeAPI{
			balance:     &api.CreditBalance{CurrentCredits: 1, CanConsume: false},
			packagesErr: api.NewError(api.CodeNetwork, ""),
		}
		client := credits.New(server, tokens)

		result := client.QuickCheck(ctx, 10)
		assert.False(t, result.CanProceed)
		assert.Equal(t, 9.0, result.Deficit)
		assert.Nil(t, result.SuggestedPackage)
	})
}

func TestClient_ComparePackages(t *testing.T) {
	ctx := context.Background()
	server := &fakeAPI{
		packages: []api.CreditPackage{
			{ID: "small", CreditAmount: 10, MonthlyPrice: 10},
			{ID: "big", CreditAmount: 20, MonthlyPrice: 15},
		},
	}
	client := credits.New(server, &fakeTokens{authenticated: true, token: "tok"})

	ranked, err := client.ComparePackages(ctx)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "big", ranked[0].ID)
}
