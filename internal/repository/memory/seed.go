package memory

import (
	"time"

	"bcct-chatbot-be/pkg/lexicon"
	"bcct-chatbot-be/pkg/nlp/extractor"
)

// NewSeededContractDataProvider returns a provider with a small, consistent
// data set: customers, contracts, parts, failed parts, opportunities and users.
func NewSeededContractDataProvider(lex *lexicon.Lexicon, now func() time.Time) *ContractDataProvider {
	p := NewContractDataProvider(lex, now)
	today := now()
	day := func(offset int) string { return today.AddDate(0, 0, offset).Format(extractor.ISODate) }

	p.AddUser("Alice Smith", "Alice Jones", "Vinod Kumar", "Bob Lee")

	for _, c := range []map[string]interface{}{
		{"CUSTOMER_NUMBER": "1234567", "CUSTOMER_NAME": "Boeing", "STATUS": "ACTIVE", "CREATE_DATE": day(-900)},
		{"CUSTOMER_NUMBER": "7654321", "CUSTOMER_NAME": "Airbus", "STATUS": "ACTIVE", "CREATE_DATE": day(-700)},
		{"CUSTOMER_NUMBER": "2345678", "CUSTOMER_NAME": "Embraer", "STATUS": "INACTIVE", "CREATE_DATE": day(-500)},
	} {
		p.AddRow("CUSTOMERS", c)
	}

	for _, c := range []map[string]interface{}{
		{
			"AWARD_NUMBER": "123456", "CONTRACT_NAME": "Boeing Fasteners", "TITLE": "2024 Fastener Award",
			"CUSTOMER_NAME": "Boeing", "CUSTOMER_NUMBER": "1234567", "STATUS": "ACTIVE",
			"PAYMENT_TERMS": "Net 30", "INCOTERMS": "FCA", "CURRENCY": "USD", "CONTRACT_LENGTH": "36 months",
			"EFFECTIVE_DATE": day(-400), "EXPIRATION_DATE": day(20), "PRICE_EXPIRATION_DATE": day(10),
			"AWARD_REP": "Alice Smith", "CREATED_BY": "Vinod Kumar", "CREATE_DATE": day(-400),
		},
		{
			"AWARD_NUMBER": "234567", "CONTRACT_NAME": "Airbus Seals", "TITLE": "Seal Supply",
			"CUSTOMER_NAME": "Airbus", "CUSTOMER_NUMBER": "7654321", "STATUS": "EXPIRED",
			"PAYMENT_TERMS": "Net 45", "INCOTERMS": "DAP", "CURRENCY": "EUR", "CONTRACT_LENGTH": "24 months",
			"EFFECTIVE_DATE": day(-800), "EXPIRATION_DATE": day(-60), "PRICE_EXPIRATION_DATE": day(-90),
			"AWARD_REP": "Bob Lee", "CREATED_BY": "Alice Jones", "CREATE_DATE": day(-800),
		},
		{
			"AWARD_NUMBER": "345678", "CONTRACT_NAME": "Boeing Bearings", "TITLE": "Bearing Award",
			"CUSTOMER_NAME": "Boeing", "CUSTOMER_NUMBER": "1234567", "STATUS": "ACTIVE",
			"PAYMENT_TERMS": "Net 60", "INCOTERMS": "EXW", "CURRENCY": "USD", "CONTRACT_LENGTH": "12 months",
			"EFFECTIVE_DATE": day(-1), "EXPIRATION_DATE": day(364), "PRICE_EXPIRATION_DATE": day(180),
			"AWARD_REP": "Alice Smith", "CREATED_BY": "Alice Smith", "CREATE_DATE": day(0),
		},
	} {
		p.AddRow("CONTRACTS", c)
	}

	for _, part := range []map[string]interface{}{
		{"LINE_NO": 1, "LOADED_CP_NUMBER": "123456", "INVOICE_PART_NUMBER": "AB12345", "EAU": 1200, "UOM": "EA", "PRICE": 4.25, "MOQ": 100, "LEAD_TIME": 30, "CLASSIFICATION": "FASTENER", "STATUS": "ACTIVE", "CREATED_BY": "Vinod Kumar", "CREATION_DATE": day(-399)},
		{"LINE_NO": 2, "LOADED_CP_NUMBER": "123456", "INVOICE_PART_NUMBER": "X9988776", "EAU": 300, "UOM": "EA", "PRICE": 12.5, "MOQ": 50, "LEAD_TIME": 45, "CLASSIFICATION": "FASTENER", "STATUS": "ACTIVE", "CREATED_BY": "Vinod Kumar", "CREATION_DATE": day(-3)},
		{"LINE_NO": 1, "LOADED_CP_NUMBER": "234567", "INVOICE_PART_NUMBER": "4455KT", "EAU": 80, "UOM": "KT", "PRICE": 310.0, "MOQ": 5, "LEAD_TIME": 90, "CLASSIFICATION": "SEAL", "STATUS": "INACTIVE", "CREATED_BY": "Alice Jones", "CREATION_DATE": day(-790)},
	} {
		p.AddRow("PARTS", part)
	}

	for _, f := range []map[string]interface{}{
		{"CONTRACT_NO": "123456", "LINE_NO": 3, "PART_NUMBER": "AB1234X", "ERROR_COLUMN": "PRICE", "REASON": "Price is missing", "CREATED_BY": "Vinod Kumar", "CREATION_DATE": day(-3)},
		{"CONTRACT_NO": "123456", "LINE_NO": 4, "PART_NUMBER": "ZZ-1", "ERROR_COLUMN": "INVOICE_PART_NUMBER", "REASON": "Unknown part number format", "CREATED_BY": "Vinod Kumar", "CREATION_DATE": day(-3)},
		{"CONTRACT_NO": "345678", "LINE_NO": 1, "PART_NUMBER": "BR-2000", "ERROR_COLUMN": "UOM", "REASON": "Unit of measure not allowed", "CREATED_BY": "Alice Smith", "CREATION_DATE": day(0)},
	} {
		p.AddRow("FAILED_PARTS", f)
	}

	for _, o := range []map[string]interface{}{
		{"OPPORTUNITY_NUMBER": "CRF12345", "OPPORTUNITY_NAME": "Boeing 2026 renewal", "CUSTOMER_NUMBER": "1234567", "STATUS": "PENDING", "CREATE_DATE": day(-30)},
		{"OPPORTUNITY_NUMBER": "CRF22222", "OPPORTUNITY_NAME": "Airbus new seals", "CUSTOMER_NUMBER": "7654321", "STATUS": "APPROVED", "CREATE_DATE": day(-5)},
	} {
		p.AddRow("OPPORTUNITIES", o)
	}

	return p
}
