package usecase

import (
	"errors"
	"math"
	"testing"

	"github.com/eslsoft/finquest/internal/entity"
)

func TestXPLedgerAwardSumsAmounts(t *testing.T) {
	ledger, err := NewXPLedger(nil, "")
	if err != nil {
		t.Fatalf("NewXPLedger: %v", err)
	}

	record := entity.NewProgressRecord("u1")
	record.XP = 15
	amounts := []int{0, 20, 35, 100, 1}
	want := 15
	for _, amount := range amounts {
		if err := ledger.Award(record, amount); err != nil {
			t.Fatalf("Award(%d): %v", amount, err)
		}
		want += amount
	}
	if record.XP != want {
		t.Fatalf("expected xp %d, got %d", want, record.XP)
	}

	err = ledger.Award(record, -5)
	if !errors.Is(err, entity.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if record.XP != want {
		t.Fatalf("negative award changed xp to %d", record.XP)
	}
}

func TestXPLedgerLevel(t *testing.T) {
	ledger, err := NewXPLedger(nil, LevelOverflowExtrapolate)
	if err != nil {
		t.Fatalf("NewXPLedger: %v", err)
	}

	cases := []struct {
		xp, level, progress int
	}{
		{0, 0, 0},
		{50, 0, 50},
		{99, 0, 99},
		{100, 1, 0},
		{175, 1, 50},
		{449, 2, 99},
		{450, 3, 0},
		{1000, 5, 0},
		{3249, 9, 99},
		{3250, 10, 0},
	}
	for _, tc := range cases {
		info := ledger.Level(tc.xp)
		if info.Level != tc.level || info.ProgressWithinLevel != tc.progress {
			t.Fatalf("Level(%d) = (%d, %d%%), want (%d, %d%%)", tc.xp, info.Level, info.ProgressWithinLevel, tc.level, tc.progress)
		}
		if info.XP != tc.xp {
			t.Fatalf("Level(%d) echoed xp %d", tc.xp, info.XP)
		}
	}
}

func TestXPLedgerOverflowExtrapolate(t *testing.T) {
	ledger, err := NewXPLedger(nil, LevelOverflowExtrapolate)
	if err != nil {
		t.Fatalf("NewXPLedger: %v", err)
	}

	// last gap 550, previous gap 500: synthetic gaps grow by 50.
	info := ledger.Level(3250)
	if info.NextLevelXP != 3850 {
		t.Fatalf("expected next threshold 3850, got %d", info.NextLevelXP)
	}
	info = ledger.Level(3850)
	if info.Level != 11 || info.ProgressWithinLevel != 0 || info.NextLevelXP != 4500 {
		t.Fatalf("unexpected level info at 3850: %+v", info)
	}
	info = ledger.Level(4175)
	if info.Level != 11 || info.ProgressWithinLevel != 50 {
		t.Fatalf("unexpected level info at 4175: %+v", info)
	}

	prev := 0
	for xp := 3000; xp < 20000; xp += 137 {
		level := ledger.Level(xp).Level
		if level < prev {
			t.Fatalf("level decreased at xp %d", xp)
		}
		prev = level
	}
}

func TestXPLedgerOverflowLinearTable(t *testing.T) {
	ledger, err := NewXPLedger([]int{0, 10, 20}, LevelOverflowExtrapolate)
	if err != nil {
		t.Fatalf("NewXPLedger: %v", err)
	}
	info := ledger.Level(45)
	if info.Level != 4 || info.ProgressWithinLevel != 50 || info.LevelFloor != 40 || info.NextLevelXP != 50 {
		t.Fatalf("unexpected level info: %+v", info)
	}
}

func TestXPLedgerOverflowClamp(t *testing.T) {
	ledger, err := NewXPLedger(nil, LevelOverflowClamp)
	if err != nil {
		t.Fatalf("NewXPLedger: %v", err)
	}
	for _, xp := range []int{3250, 5000, 1 << 30} {
		info := ledger.Level(xp)
		if info.Level != 10 || info.ProgressWithinLevel != 100 {
			t.Fatalf("Level(%d) = %+v, want clamped level 10 at 100%%", xp, info)
		}
	}
}

func TestNewXPLedgerRejectsBadTables(t *testing.T) {
	bad := [][]int{
		{0},
		{10, 20},
		{0, 100, 100},
		{0, 200, 150},
	}
	for _, table := range bad {
		if _, err := NewXPLedger(table, ""); err == nil {
			t.Fatalf("expected error for table %v", table)
		}
	}
	if _, err := NewXPLedger(nil, "sideways"); err == nil {
		t.Fatal("expected error for unknown overflow policy")
	}
}

func TestXPLedgerAwardRejectsOverflow(t *testing.T) {
	ledger, err := NewXPLedger(nil, "")
	if err != nil {
		t.Fatalf("NewXPLedger: %v", err)
	}

	record := entity.NewProgressRecord("u1")
	if err := ledger.Award(record, math.MaxInt); err != nil {
		t.Fatalf("Award(MaxInt) on empty record: %v", err)
	}
	err = ledger.Award(record, 1)
	if !errors.Is(err, entity.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if record.XP != math.MaxInt {
		t.Fatalf("overflowing award changed xp to %d", record.XP)
	}
}

func TestXPLedgerLevelAtExtremes(t *testing.T) {
	tables := map[string][]int{
		"default": nil,
		"linear":  {0, 1, 2},
	}
	for name, table := range tables {
		for _, overflow := range []LevelOverflow{LevelOverflowExtrapolate, LevelOverflowClamp} {
			ledger, err := NewXPLedger(table, overflow)
			if err != nil {
				t.Fatalf("NewXPLedger(%s): %v", name, err)
			}
			prev := 0
			for _, xp := range []int{1e12, math.MaxInt / 2, math.MaxInt - 1, math.MaxInt} {
				info := ledger.Level(xp)
				if info.Level < prev {
					t.Fatalf("%s/%s: level decreased at xp %d", name, overflow, xp)
				}
				prev = info.Level
				if info.ProgressWithinLevel < 0 || info.ProgressWithinLevel > 100 {
					t.Fatalf("%s/%s: progress %d out of range at xp %d", name, overflow, info.ProgressWithinLevel, xp)
				}
				if info.LevelFloor > xp || (overflow == LevelOverflowExtrapolate && info.NextLevelXP < xp) {
					t.Fatalf("%s/%s: xp %d outside [%d, %d]", name, overflow, xp, info.LevelFloor, info.NextLevelXP)
				}
			}
		}
	}
}

func TestXPLedgerExtrapolateMatchesStepwise(t *testing.T) {
	ledger, err := NewXPLedger(nil, LevelOverflowExtrapolate)
	if err != nil {
		t.Fatalf("NewXPLedger: %v", err)
	}
	// walk synthetic levels one gap at a time: 550 grows by 50 per level.
	floor, gap := 3250, 550
	for level := 10; level < 200; level++ {
		gap += 50
		info := ledger.Level(floor)
		if info.Level != level || info.LevelFloor != floor || info.NextLevelXP != floor+gap {
			t.Fatalf("Level(%d) = %+v, want level %d in [%d, %d)", floor, info, level, floor, floor+gap)
		}
		if prior := ledger.Level(floor + gap - 1); prior.Level != level {
			t.Fatalf("Level(%d) = %d, want %d", floor+gap-1, prior.Level, level)
		}
		floor += gap
	}
}
