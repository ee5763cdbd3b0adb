package usecase

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/eslsoft/finquest/internal/entity"
)

// LevelOverflow selects how levels are derived past the last threshold.
type LevelOverflow string

const (
	// LevelOverflowExtrapolate keeps growing synthetic thresholds using the
	// table's last gap and the change between its last two gaps.
	LevelOverflowExtrapolate LevelOverflow = "extrapolate"
	// LevelOverflowClamp pins learners at the last level with full progress.
	LevelOverflowClamp LevelOverflow = "clamp"
)

// DefaultLevelThresholds is the XP needed to reach each level index.
var DefaultLevelThresholds = []int{0, 100, 250, 450, 700, 1000, 1350, 1750, 2200, 2700, 3250}

// XPLedger awards XP and maps XP totals onto levels.
type XPLedger struct {
	thresholds []int
	overflow   LevelOverflow
}

// NewXPLedger validates the threshold table. An empty table uses the defaults.
func NewXPLedger(thresholds []int, overflow LevelOverflow) (*XPLedger, error) {
	if len(thresholds) == 0 {
		thresholds = DefaultLevelThresholds
	}
	if len(thresholds) < 2 {
		return nil, errors.New("level table needs at least two thresholds")
	}
	if thresholds[0] != 0 {
		return nil, fmt.Errorf("level table must start at 0, got %d", thresholds[0])
	}
	for i := 1; i < len(thresholds); i++ {
		if thresholds[i] <= thresholds[i-1] {
			return nil, fmt.Errorf("level thresholds must be strictly ascending at index %d", i)
		}
	}

	switch LevelOverflow(strings.ToLower(string(overflow))) {
	case "", LevelOverflowExtrapolate:
		overflow = LevelOverflowExtrapolate
	case LevelOverflowClamp:
		overflow = LevelOverflowClamp
	default:
		return nil, fmt.Errorf("unknown level overflow policy %q", overflow)
	}

	return &XPLedger{
		thresholds: append([]int(nil), thresholds...),
		overflow:   overflow,
	}, nil
}

// Award adds amount to the record's XP. Negative amounts and amounts that
// would overflow the total leave the record untouched.
func (l *XPLedger) Award(record *entity.ProgressRecord, amount int) error {
	if amount < 0 {
		return fmt.Errorf("%w: %d", entity.ErrInvalidAmount, amount)
	}
	if amount > math.MaxInt-record.XP {
		return fmt.Errorf("%w: %d exceeds the xp ceiling", entity.ErrInvalidAmount, amount)
	}
	record.XP += amount
	return nil
}

// Level returns the level index for xp and the floored percentage toward the
// next level.
func (l *XPLedger) Level(xp int) entity.LevelInfo {
	if xp < 0 {
		xp = 0
	}
	t := l.thresholds
	last := len(t) - 1

	// largest i with xp >= t[i]
	level := sort.Search(len(t), func(i int) bool { return t[i] > xp }) - 1
	if level < last {
		return levelInfo(xp, level, t[level], t[level+1])
	}

	if l.overflow == LevelOverflowClamp {
		return entity.LevelInfo{
			Level:               last,
			ProgressWithinLevel: 100,
			XP:                  xp,
			LevelFloor:          t[last],
			NextLevelXP:         t[last],
		}
	}

	gap := t[last] - t[last-1]
	step := 0
	if len(t) >= 3 {
		step = gap - (t[last-1] - t[last-2])
	}
	if step < 0 {
		step = 0
	}

	// Synthetic level k above the table starts at
	// t[last] + k*gap + step*k*(k+1)/2.
	floorAt := func(k int) (int, bool) {
		return extrapolatedFloor(t[last], gap, step, k)
	}
	var k int
	if step == 0 {
		k = (xp - t[last]) / gap
	} else {
		a, b, c := float64(step)/2, float64(gap)+float64(step)/2, float64(xp-t[last])
		k = int((-b + math.Sqrt(b*b+4*a*c)) / (2 * a))
		if k < 0 {
			k = 0
		}
	}
	for k > 0 {
		if f, ok := floorAt(k); ok && f <= xp {
			break
		}
		k--
	}
	for {
		if f, ok := floorAt(k + 1); !ok || f > xp {
			break
		}
		k++
	}

	floor, _ := floorAt(k)
	next, ok := floorAt(k + 1)
	if !ok {
		next = math.MaxInt
	}
	return levelInfo(xp, last+k, floor, next)
}

// extrapolatedFloor computes base + k*gap + step*k*(k+1)/2 and reports false
// when the value does not fit in an int.
func extrapolatedFloor(base, gap, step, k int) (int, bool) {
	if k == math.MaxInt {
		return 0, false
	}
	growth := 0
	if step > 0 {
		var tri int
		var ok bool
		if k%2 == 0 {
			tri, ok = mulNonNeg(k/2, k+1)
		} else {
			tri, ok = mulNonNeg(k, (k+1)/2)
		}
		if !ok {
			return 0, false
		}
		if growth, ok = mulNonNeg(step, tri); !ok {
			return 0, false
		}
	}
	linear, ok := mulNonNeg(k, gap)
	if !ok {
		return 0, false
	}
	if linear > math.MaxInt-base || growth > math.MaxInt-base-linear {
		return 0, false
	}
	return base + linear + growth, true
}

func mulNonNeg(a, b int) (int, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

func levelInfo(xp, level, floor, next int) entity.LevelInfo {
	span, delta := next-floor, xp-floor
	var progress int
	switch {
	case span <= 0:
		progress = 100
	case delta > math.MaxInt/100:
		progress = delta / (span / 100)
	default:
		progress = 100 * delta / span
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	return entity.LevelInfo{
		Level:               level,
		ProgressWithinLevel: progress,
		XP:                  xp,
		LevelFloor:          floor,
		NextLevelXP:         next,
	}
}
