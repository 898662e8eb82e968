package generator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

// Row is one line of a generated bank statement. An empty Receiver is a cash
// withdrawal. Amount is kept textual so malformed values can be emitted.
type Row struct {
	Sender   string
	Receiver string
	Amount   string
	Bank     string
	IFSC     string
}

// Expected describes the ring shape a correct trace must recover.
type Expected struct {
	Victim          string
	Layer1          []string
	HighWithdrawals int
}

// Dataset contains the generated statement rows and the planted ring.
type Dataset struct {
	Rows     []Row
	Expected Expected
}

// Generator produces synthetic statements with a planted two-layer mule ring.
type Generator struct {
	cfg   Config
	rand  *rand.Rand
	banks []bank
	used  map[string]struct{}
	sent  map[string]int
	mules []string
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumLayer1 <= 0 {
		cfg.NumLayer1 = def.NumLayer1
	}
	if cfg.MaxLayer2 < 0 {
		cfg.MaxLayer2 = 0
	}
	if cfg.MinAmount.IsZero() {
		cfg.MinAmount = def.MinAmount
	}
	if cfg.HighWithdrawal.IsZero() {
		cfg.HighWithdrawal = def.HighWithdrawal
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:   cfg,
		rand:  rand.New(rand.NewSource(cfg.Seed)),
		banks: defaultBanks(),
		used:  make(map[string]struct{}),
		sent:  make(map[string]int),
	}
}

// Generate synthesises one victim's statement. Victim transfers come first so
// the victim also wins any sender-count tie. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	g.sent = make(map[string]int)
	g.mules = nil

	victim := g.newAccount()
	ds := Dataset{Expected: Expected{Victim: victim}}
	victimBank := g.randomBank()

	var victimRows []Row
	layer1 := make([]string, g.cfg.NumLayer1)
	for i := range layer1 {
		layer1[i] = g.newAccount()
		victimRows = append(victimRows, g.transfer(victim, layer1[i], victimBank))
		if g.rand.Float64() < g.cfg.RepeatChance {
			victimRows = append(victimRows, g.transfer(victim, layer1[i], victimBank))
		}
	}
	ds.Expected.Layer1 = layer1
	ds.Rows = append(ds.Rows, victimRows...)

	// No mule may out-send the victim, or the victim would not be the mode.
	budget := len(victimRows)
	emit := func(row Row, high bool) {
		ds.Rows = append(ds.Rows, row)
		g.sent[row.Sender]++
		if high {
			ds.Expected.HighWithdrawals++
		}
	}
	for _, l1 := range layer1 {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}

		muleBank := g.randomBank()
		if g.rand.Float64() < g.cfg.WithdrawalChance {
			emit(g.withdrawal(l1, muleBank))
		}

		children := 0
		if g.cfg.MaxLayer2 > 0 {
			children = 1 + g.rand.Intn(g.cfg.MaxLayer2)
		}
		for c := 0; c < children && g.sent[l1] < budget; c++ {
			l2 := g.maybeSharedMule()
			emit(g.transfer(l1, l2, muleBank), false)
			if g.rand.Float64() < g.cfg.WithdrawalChance && g.sent[l2] < budget {
				emit(g.withdrawal(l2, g.randomBank()))
			}
		}
	}

	for i := 0; i < g.cfg.NoiseRows; i++ {
		ds.Rows = append(ds.Rows, g.noise(victim, victimBank))
	}
	for i := 0; i < g.cfg.MalformedRows; i++ {
		row := g.transfer(victim, g.newAccount(), victimBank)
		row.Amount = "N/A"
		ds.Rows = append(ds.Rows, row)
	}

	return ds, nil
}

func (g *Generator) transfer(from, to string, b bank) Row {
	// Strictly above the analysis threshold, up to five times it.
	floor := g.cfg.MinAmount.IntPart() + 1
	amount := decimal.NewFromInt(floor + g.rand.Int63n(4*floor)).Round(-2)
	if !amount.GreaterThan(g.cfg.MinAmount) {
		amount = amount.Add(decimal.NewFromInt(100))
	}
	return Row{
		Sender:   from,
		Receiver: to,
		Amount:   g.formatAmount(amount),
		Bank:     b.name,
		IFSC:     g.ifsc(b),
	}
}

func (g *Generator) withdrawal(account string, b bank) (Row, bool) {
	high := g.rand.Float64() < g.cfg.HighWithdrawalChance
	var amount decimal.Decimal
	if high {
		amount = g.cfg.HighWithdrawal.Add(decimal.NewFromInt(1 + g.rand.Int63n(g.cfg.HighWithdrawal.IntPart())))
	} else {
		span := g.cfg.HighWithdrawal.Sub(g.cfg.MinAmount).IntPart()
		if span < 1 {
			span = 1
		}
		amount = g.cfg.MinAmount.Add(decimal.NewFromInt(1 + g.rand.Int63n(span)))
		if amount.GreaterThan(g.cfg.HighWithdrawal) {
			amount = g.cfg.HighWithdrawal
		}
	}
	return Row{
		Sender: account,
		Amount: g.formatAmount(amount),
		Bank:   b.name,
	}, high
}

// noise is a small victim payment that the normalizer filters out.
func (g *Generator) noise(victim string, b bank) Row {
	amount := decimal.NewFromInt(1 + g.rand.Int63n(g.cfg.MinAmount.IntPart()))
	return Row{
		Sender:   victim,
		Receiver: g.newAccount(),
		Amount:   g.formatAmount(amount),
		Bank:     b.name,
		IFSC:     g.ifsc(b),
	}
}

// maybeSharedMule reuses an existing layer 2 account across branches, the way
// mule rings funnel money into a few collector accounts.
func (g *Generator) maybeSharedMule() string {
	if len(g.mules) > 0 && g.rand.Float64() < g.cfg.SharedMuleChance {
		return g.mules[g.rand.Intn(len(g.mules))]
	}
	acct := g.newAccount()
	g.mules = append(g.mules, acct)
	return acct
}

func (g *Generator) newAccount() string {
	for {
		acct := fmt.Sprintf("%d%011d", 1+g.rand.Intn(9), g.rand.Int63n(1e11))
		if _, ok := g.used[acct]; !ok {
			g.used[acct] = struct{}{}
			return acct
		}
	}
}

func (g *Generator) formatAmount(amount decimal.Decimal) string {
	if !g.cfg.DecoratedAmounts {
		return amount.String()
	}
	digits := amount.Truncate(0).String()
	out := make([]byte, 0, len(digits)+len(digits)/3)
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i])
	}
	return "₹" + string(out)
}

func (g *Generator) randomBank() bank {
	return g.banks[g.rand.Intn(len(g.banks))]
}

func (g *Generator) ifsc(b bank) string {
	return fmt.Sprintf("%s0%06d", b.ifscPrefix, g.rand.Intn(1000000))
}

type bank struct {
	name       string
	ifscPrefix string
}

func defaultBanks() []bank {
	return []bank{
		{"State Bank of India", "SBIN"},
		{"HDFC Bank", "HDFC"},
		{"ICICI Bank", "ICIC"},
		{"Axis Bank", "UTIB"},
		{"Punjab National Bank", "PUNB"},
		{"Kotak Mahindra Bank", "KKBK"},
		{"Bank of Baroda", "BARB"},
	}
}
