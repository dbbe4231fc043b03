package invoice

import "github.com/shopspring/decimal"

// Sample returns the demo invoice shown on the storefront's invoice page.
func Sample() *Invoice {
	return &Invoice{
		Number:       "MH-2024-12346",
		Date:         "December 25, 2024",
		Time:         "2:30 PM",
		Status:       "Paid & Confirmed",
		CustomerName: "Md. Rahman",
		Phone:        "+880 1712 345678",
		Email:        "rahman@example.com",
		Address:      "456 Main Street, Dhaka 1000",
		OrderID:      "ORD-724856",
		Payment:      "bKash",
		Transaction:  "TRX123456789",
		Lines: []Line{
			{Name: "Paracetamol 500mg", SKU: "PARA-500-100", Quantity: 2, Price: decimal.NewFromInt(120)},
			{Name: "Vitamin C 1000mg", SKU: "VITC-1000-50", Quantity: 1, Price: decimal.NewFromInt(450)},
			{Name: "Cough Syrup", SKU: "COUGH-200ML", Quantity: 1, Price: decimal.NewFromInt(180)},
		},
		Delivery:     decimal.Zero,
		DiscountCode: "MED10",
		DiscountRate: decimal.RequireFromString("0.10"),
		VATRate:      decimal.RequireFromString("0.05"),
		Instructions: "Please deliver between 10:00 AM to 12:00 PM. Call before delivery.",
		Currency:     "৳",
	}
}
