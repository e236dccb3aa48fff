package asset

import (
	"encoding/json"
	"testing"

	"github.com/iov-one/custody/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantityArithmetic(t *testing.T) {
	cases := map[string]struct {
		a, b    Quantity
		sum     Quantity
		diff    Quantity
		diffErr *errors.Error
	}{
		"whole units": {
			a:    Units(100),
			b:    Units(50),
			sum:  Units(150),
			diff: Units(50),
		},
		"fractional carry": {
			a:    NewQuantity(1, 600000000),
			b:    NewQuantity(0, 700000000),
			sum:  NewQuantity(2, 300000000),
			diff: NewQuantity(0, 900000000),
		},
		"equal values": {
			a:    NewQuantity(3, 5),
			b:    NewQuantity(3, 5),
			sum:  NewQuantity(6, 10),
			diff: Quantity{},
		},
		"subtracting more than there is": {
			a:       Units(1),
			b:       NewQuantity(1, 1),
			sum:     NewQuantity(2, 1),
			diffErr: errors.ErrAmount,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			sum, err := tc.a.Add(tc.b)
			require.NoError(t, err)
			assert.Equal(t, tc.sum, sum)

			diff, err := tc.a.Sub(tc.b)
			if tc.diffErr != nil {
				require.True(t, tc.diffErr.Is(err), "got %+v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.diff, diff)
		})
	}
}

func TestQuantityOverflow(t *testing.T) {
	_, err := Units(MaxWhole).Add(NewQuantity(0, MaxFrac+1))
	assert.True(t, errors.ErrOverflow.Is(err))
}

func TestQuantityCompare(t *testing.T) {
	assert.Equal(t, 0, Units(50).Compare(Units(50)))
	assert.Equal(t, 1, Units(60).Compare(Units(50)))
	assert.Equal(t, -1, NewQuantity(50, 0).Compare(NewQuantity(50, 1)))
	assert.True(t, NewQuantity(0, 1).IsPositive())
	assert.False(t, Quantity{}.IsPositive())
	assert.True(t, Quantity{}.IsZero())
}

func TestQuantityValidate(t *testing.T) {
	assert.NoError(t, NewQuantity(12, 5).Validate())
	assert.True(t, errors.ErrAmount.Is(Units(-1).Validate()))
	assert.True(t, errors.ErrOverflow.Is(Units(MaxWhole+1).Validate()))
	assert.True(t, errors.ErrOverflow.Is(NewQuantity(0, FracUnit).Validate()))
}

func TestQuantityHumanFormat(t *testing.T) {
	cases := map[string]struct {
		human   string
		want    Quantity
		wantErr *errors.Error
	}{
		"whole": {
			human: "100",
			want:  Units(100),
		},
		"fraction": {
			human: "12.5",
			want:  NewQuantity(12, 500000000),
		},
		"smallest fraction": {
			human: "0.000000001",
			want:  NewQuantity(0, 1),
		},
		"too precise": {
			human:   "0.0000000001",
			wantErr: errors.ErrInput,
		},
		"negative": {
			human:   "-4",
			wantErr: errors.ErrInput,
		},
		"garbage": {
			human:   "ten",
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got, err := ParseQuantity(tc.human)
			if tc.wantErr != nil {
				require.True(t, tc.wantErr.Is(err), "got %+v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.human, got.String())
		})
	}
}

func TestQuantityUnmarshalJSON(t *testing.T) {
	var q Quantity
	require.NoError(t, json.Unmarshal([]byte(`"50.25"`), &q))
	assert.Equal(t, NewQuantity(50, 250000000), q)

	require.NoError(t, json.Unmarshal([]byte(`{"whole": 7, "fractional": 1}`), &q))
	assert.Equal(t, NewQuantity(7, 1), q)

	assert.Error(t, json.Unmarshal([]byte(`"x"`), &q))
}
