package autotopup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/M0R1S0N/steampay/internal/steampay/providers/exchange"
	"github.com/M0R1S0N/steampay/pkg/logging"
)

type fakeWalletBalance struct {
	mux     sync.Mutex
	balance decimal.Decimal
	err     error
	calls   int
}

func (f *fakeWalletBalance) Balance(_ context.Context) (decimal.Decimal, error) {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.calls++
	return f.balance, f.err
}

func (f *fakeWalletBalance) callCount() int {
	f.mux.Lock()
	defer f.mux.Unlock()
	return f.calls
}

type fakeExchange struct {
	balance     decimal.Decimal
	transferErr error
	transfers   []decimal.Decimal
}

func (f *fakeExchange) Balance(_ context.Context) (decimal.Decimal, error) {
	return f.balance, nil
}

func (f *fakeExchange) Transfer(_ context.Context, amount decimal.Decimal) (exchange.TransferResult, error) {
	f.transfers = append(f.transfers, amount)
	if f.transferErr != nil {
		return exchange.TransferResult{}, f.transferErr
	}
	return exchange.TransferResult{RetMsg: "success"}, nil
}

type fakeNotifier struct {
	mux      sync.Mutex
	messages []string
}

func (f *fakeNotifier) Notify(_ context.Context, text string) {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.messages = append(f.messages, text)
}

func (f *fakeNotifier) count() int {
	f.mux.Lock()
	defer f.mux.Unlock()
	return len(f.messages)
}

func testLogger(t *testing.T) *logging.ZapLogger {
	t.Helper()
	logger, err := logging.NewZapLogger(zapcore.ErrorLevel)
	require.NoError(t, err)
	return logger
}

func testConfig() Config {
	return Config{
		TickPeriod:       time.Minute,
		MinWalletBalance: decimal.NewFromInt(60),
		TopupAmount:      decimal.NewFromInt(120),
	}
}

func newMonitorForTest(t *testing.T, cfg Config, wallet *fakeWalletBalance, ex *fakeExchange, notifier *fakeNotifier) *Monitor {
	t.Helper()
	return New(cfg, wallet, ex, notifier, testLogger(t))
}

func TestTickTransfersWhenWalletLow(t *testing.T) {
	wallet := &fakeWalletBalance{balance: decimal.NewFromInt(50)}
	ex := &fakeExchange{balance: decimal.NewFromInt(150)}
	notifier := &fakeNotifier{}
	monitor := newMonitorForTest(t, testConfig(), wallet, ex, notifier)

	err := monitor.tick(context.Background())

	require.NoError(t, err)
	require.Len(t, ex.transfers, 1)
	assert.True(t, ex.transfers[0].Equal(decimal.NewFromInt(120)))
	assert.Equal(t, 1, notifier.count())
}

func TestTickSkipsWhenWalletSufficient(t *testing.T) {
	wallet := &fakeWalletBalance{balance: decimal.NewFromInt(60)}
	ex := &fakeExchange{balance: decimal.NewFromInt(150)}
	notifier := &fakeNotifier{}
	monitor := newMonitorForTest(t, testConfig(), wallet, ex, notifier)

	err := monitor.tick(context.Background())

	require.NoError(t, err)
	assert.Empty(t, ex.transfers)
	assert.Equal(t, 0, notifier.count())
}

func TestTickWarnsWhenExchangeLow(t *testing.T) {
	wallet := &fakeWalletBalance{balance: decimal.NewFromInt(10)}
	ex := &fakeExchange{balance: decimal.NewFromInt(50)}
	notifier := &fakeNotifier{}
	monitor := newMonitorForTest(t, testConfig(), wallet, ex, notifier)

	err := monitor.tick(context.Background())

	require.NoError(t, err)
	assert.Empty(t, ex.transfers, "no transfer when the exchange cannot cover it")
	assert.Equal(t, 1, notifier.count())
}

func TestTickDryRun(t *testing.T) {
	cfg := testConfig()
	cfg.DryRun = true
	wallet := &fakeWalletBalance{balance: decimal.NewFromInt(10)}
	ex := &fakeExchange{balance: decimal.NewFromInt(500)}
	notifier := &fakeNotifier{}
	monitor := newMonitorForTest(t, cfg, wallet, ex, notifier)

	err := monitor.tick(context.Background())

	require.NoError(t, err)
	assert.Empty(t, ex.transfers, "dry run must not move funds")
	assert.Equal(t, 1, notifier.count())
}

func TestTickPropagatesBalanceError(t *testing.T) {
	wallet := &fakeWalletBalance{err: errors.New("gateway down")}
	ex := &fakeExchange{balance: decimal.NewFromInt(150)}
	monitor := newMonitorForTest(t, testConfig(), wallet, ex, &fakeNotifier{})

	err := monitor.tick(context.Background())

	require.Error(t, err)
	assert.Empty(t, ex.transfers)
}

func TestRunSurvivesFailingTicks(t *testing.T) {
	cfg := testConfig()
	cfg.TickPeriod = 10 * time.Millisecond
	wallet := &fakeWalletBalance{err: errors.New("gateway down")}
	ex := &fakeExchange{balance: decimal.NewFromInt(150)}
	notifier := &fakeNotifier{}
	monitor := newMonitorForTest(t, cfg, wallet, ex, notifier)

	stopped := make(chan struct{})
	go func() {
		monitor.Run(context.Background())
		close(stopped)
	}()

	require.Eventually(t, func() bool {
		return wallet.callCount() >= 2
	}, time.Second, 5*time.Millisecond, "loop must keep ticking after failures")

	monitor.Stop()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
	assert.Empty(t, ex.transfers)
}
