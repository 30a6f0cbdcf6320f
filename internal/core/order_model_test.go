package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testToday = time.Date(2026, 4, 10, 9, 30, 0, 0, time.UTC)

func TestBuildOrder(t *testing.T) {
	o, err := BuildOrder(NewOrderInput{StyleID: "ST-1", Customer: "Acme", Quantity: 200, Rate: dec("45.50")}, "meera", testToday)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "2026-04-10", o.OrderDate.String())
	assert.Equal(t, "meera", o.CreatedBy)
	assert.Nil(t, o.Sizes)
	assert.True(t, o.Amount.Equal(dec("9100")))
}

func TestBuildOrder_SizesOverrideQuantity(t *testing.T) {
	in := NewOrderInput{
		StyleID:  "ST-2",
		Customer: "Acme",
		Quantity: 1,
		Sizes:    &SizeBreakdown{XS: 5, M: 10, XL7: 1},
		Rate:     dec("10"),
	}
	o, err := BuildOrder(in, "meera", testToday)
	require.NoError(t, err)
	assert.Equal(t, 16, o.Quantity)
	assert.True(t, o.Amount.Equal(dec("160")))

	// The order keeps its own copy of the breakdown.
	in.Sizes.M = 99
	assert.Equal(t, 10, o.Sizes.M)
}

func TestBuildOrder_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    NewOrderInput
		user  string
		field string
	}{
		{"missing style", NewOrderInput{Customer: "Acme"}, "meera", "style_id"},
		{"missing customer", NewOrderInput{StyleID: "ST-1"}, "meera", "customer"},
		{"negative quantity", NewOrderInput{StyleID: "ST-1", Customer: "Acme", Quantity: -1}, "meera", "quantity"},
		{"negative rate", NewOrderInput{StyleID: "ST-1", Customer: "Acme", Rate: dec("-1")}, "meera", "rate"},
		{"negative size", NewOrderInput{StyleID: "ST-1", Customer: "Acme", Sizes: &SizeBreakdown{L: -2}}, "meera", "l"},
		{"style too long", NewOrderInput{StyleID: "ST-123456789012345678", Customer: "Acme"}, "meera", "style_id"},
		{"no acting user", NewOrderInput{StyleID: "ST-1", Customer: "Acme"}, " ", "acting_user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildOrder(tt.in, tt.user, testToday)
			require.ErrorIs(t, err, ErrValidation)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			fields := make([]string, len(ve.Fields))
			for i, f := range ve.Fields {
				fields[i] = f.Field
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestApplyRevision(t *testing.T) {
	o, err := BuildOrder(NewOrderInput{StyleID: "ST-1", Customer: "Acme", Quantity: 10, Rate: dec("2")}, "meera", testToday)
	require.NoError(t, err)
	o.Status = StatusStitching

	rate := dec("3")
	require.NoError(t, ApplyRevision(o, ReviseOrderInput{Sizes: &SizeBreakdown{S: 4, M: 4}, Rate: &rate}))
	assert.Equal(t, 8, o.Quantity)
	assert.True(t, o.Amount.Equal(dec("24")))
	assert.Equal(t, StatusStitching, o.Status)

	// A plain quantity drops the breakdown.
	qty := 20
	require.NoError(t, ApplyRevision(o, ReviseOrderInput{Quantity: &qty}))
	assert.Nil(t, o.Sizes)
	assert.Equal(t, 20, o.Quantity)
	assert.True(t, o.Amount.Equal(dec("60")))

	empty := ""
	assert.ErrorIs(t, ApplyRevision(o, ReviseOrderInput{Customer: &empty}), ErrValidation)
	assert.Equal(t, "Acme", o.Customer)
}

func TestAdvanceStatus(t *testing.T) {
	o := &Order{Status: StatusStitching}
	assert.True(t, o.AdvanceStatus(StatusStitching, StatusExtraWork))
	assert.Equal(t, StatusExtraWork, o.Status)

	// Repeating the same advance is a no-op.
	assert.False(t, o.AdvanceStatus(StatusStitching, StatusExtraWork))
	assert.Equal(t, StatusExtraWork, o.Status)

	// Never backwards.
	assert.False(t, o.AdvanceStatus(StatusExtraWork, StatusPending))
	assert.Equal(t, StatusExtraWork, o.Status)
}

func TestSizeBreakdown(t *testing.T) {
	b := SizeBreakdown{XS: 1, S: 2, M: 3, L: 4, XL: 5, XXL: 6, XXXL: 7, XL4: 8, XL5: 9, XL6: 10, XL7: 11}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, b.Buckets())
	assert.Equal(t, 66, b.Total())
	assert.Len(t, SizeLabels, len(b.Buckets()))
}

func TestStageInputValidation(t *testing.T) {
	valid := JobWork{JobWorkerName: "Ravi Tailors", IssuedChallanQuantity: 10, ReceivedQuantity: 9, Rate: dec("2")}

	assert.NoError(t, StitchingInput{JobWork: valid}.Validate())
	assert.ErrorIs(t, ExtraWorkInput{JobWork: valid}.Validate(), ErrValidation, "extra work name is required")
	assert.NoError(t, ExtraWorkInput{JobWork: valid, ExtraWorkName: "Embroidery"}.Validate())

	zeroRate := valid
	zeroRate.Rate = dec("0")
	assert.ErrorIs(t, ClothCuttingInput{JobWork: zeroRate}.Validate(), ErrValidation)

	assert.ErrorIs(t, DyeingReceivedInput{DyeingSentID: 1, ShrinkagePercent: dec("100.5")}.Validate(), ErrValidation)
	assert.ErrorIs(t, DyeingReceivedInput{DyeingSentID: 1, ShrinkagePercent: dec("-1")}.Validate(), ErrValidation)
	assert.ErrorIs(t, DyeingReceivedInput{ShrinkagePercent: dec("5")}.Validate(), ErrValidation)
	assert.NoError(t, DyeingReceivedInput{DyeingSentID: 1, ShrinkagePercent: dec("100")}.Validate())

	assert.ErrorIs(t, DispatchInput{Quantity: 5}.Validate(), ErrValidation)
	assert.NoError(t, DispatchInput{DispatchedTo: "Acme", Quantity: 5}.Validate())

	err := withActingUser(FabricPurchaseInput{PurchasedFrom: "Mill", Rate: dec("1")}.Validate(), "")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Equal(t, "acting_user", ve.Fields[0].Field)
}
