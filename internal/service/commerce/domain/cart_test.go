package domain

import (
	"errors"
	"testing"

	"inkverse/internal/pkg/apperr"
)

func flashProduct() *Product {
	return &Product{ID: "vol-1", BasePrice: 10000, FlashSale: &FlashSale{Price: 8000, Limit: 3, Sold: 0}}
}

func TestCartEndToEnd(t *testing.T) {
	line, err := ResolveLinePricing(flashProduct(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if !line.Mixed || line.SaleQty != 3 || line.SalePrice != 8000 || line.NormalQty != 2 || line.NormalPrice != 10000 {
		t.Fatalf("unexpected breakdown: %+v", line)
	}

	totals, err := ComputeTotals([]LinePricing{line}, &VoucherApplication{
		Code:    "SUMMER",
		Voucher: baseVoucher(),
		UserID:  "u1",
		Now:     testNow,
	})
	if err != nil {
		t.Fatal(err)
	}
	if totals.Subtotal != 44000 || totals.Discount != 5000 || totals.Total != 39000 {
		t.Fatalf("totals = %+v, want 44000/5000/39000", totals)
	}
	if len(totals.Notes) != 1 {
		t.Fatalf("expected a stock-exhausted note, got %v", totals.Notes)
	}
}

func TestComputeTotalsInvalidatesVoucherAfterQuantityChange(t *testing.T) {
	line, _ := ResolveLinePricing(flashProduct(), 4) // 3*8000 + 10000 = 34000
	totals, err := ComputeTotals([]LinePricing{line}, &VoucherApplication{Code: "SUMMER", Voucher: baseVoucher(), Now: testNow})
	if err != nil {
		t.Fatal(err)
	}
	if !totals.VoucherInvalidated || totals.InvalidReason != "BELOW_MINIMUM" {
		t.Fatalf("voucher should be invalidated with BELOW_MINIMUM, got %+v", totals)
	}
	if totals.Discount != 0 || totals.Total != 34000 {
		t.Fatalf("totals = %+v", totals)
	}
}

func TestComputeTotalsWithoutVoucher(t *testing.T) {
	a, _ := ResolveLinePricing(&Product{ID: "a", BasePrice: 1200}, 2)
	b, _ := ResolveLinePricing(&Product{ID: "b", BasePrice: 300}, 1)
	totals, err := ComputeTotals([]LinePricing{a, b}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if totals.Total != 2700 || totals.VoucherCode != "" {
		t.Fatalf("totals = %+v", totals)
	}
}

func TestComputeTotalsRejectsInconsistentLine(t *testing.T) {
	_, err := ComputeTotals([]LinePricing{{ProductID: "x", Quantity: 3, NormalQty: 1, NormalPrice: 10}}, nil)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestVoucherEligibilityRunsLast(t *testing.T) {
	calls := 0
	deny := func(v *Voucher, in EligibilityInput) error {
		calls++
		if !in.HasFlashSale || in.LineCount != 1 || in.Subtotal != 44000 || in.UserID != "u1" {
			t.Errorf("unexpected eligibility input: %+v", in)
		}
		return ErrNotEligible
	}
	v := baseVoucher()
	v.EligibilityRule = "subtotal > 100000"
	line, _ := ResolveLinePricing(flashProduct(), 5)

	app := &VoucherApplication{Code: v.Code, Voucher: v, UserID: "u1", Now: testNow, Eligibility: deny}
	if _, err := app.Validate([]LinePricing{line}, line.Subtotal()); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("err = %v, want ErrNotEligible", err)
	}

	// 基础校验失败时不执行资格规则
	v.IsActive = false
	if _, err := app.Validate([]LinePricing{line}, line.Subtotal()); !errors.Is(err, ErrVoucherInactive) {
		t.Fatalf("err = %v, want ErrVoucherInactive", err)
	}
	if calls != 1 {
		t.Fatalf("eligibility evaluated %d times, want 1", calls)
	}
}
