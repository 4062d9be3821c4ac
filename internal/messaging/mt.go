package messaging

import (
	"strings"

	"github.com/valyala/fasttemplate"

	"github.com/trms/treasury-mock/internal/domain"
)

// mtTemplate is the FIN block layout used for outbound customer transfers.
const mtTemplate = `{1:F01${sender}0000000000}
{2:I${type}${receiver}N}
{4:
:20:${reference}
:23B:CRED
:32A:${valueDate}${currency}${amount}
:50K:${ordering}
:59:${beneficiary}
/${beneficiaryAccount}
:71A:SHA
:72:/REM/${remittance}
-}
`

var mtTemplateCompiled = fasttemplate.New(mtTemplate, "${", "}")

// renderMT builds the raw FIN text for a message.
func renderMT(m *domain.SwiftMessage) string {
	return mtTemplateCompiled.ExecuteString(map[string]any{
		"sender":             m.SenderBIC,
		"type":               m.MessageType[2:],
		"receiver":           m.ReceiverBIC,
		"reference":          m.Reference,
		"valueDate":          m.ValueDate.Format("060102"),
		"currency":           m.Currency,
		"amount":             finAmount(m),
		"ordering":           orDefault(m.OrderingCustomer, "ORDERING CUSTOMER"),
		"beneficiary":        orDefault(m.BeneficiaryName, "BENEFICIARY"),
		"beneficiaryAccount": orDefault(m.BeneficiaryAccount, "ACCOUNT"),
		"remittance":         orDefault(m.RemittanceInfo, "PAYMENT"),
	})
}

// finAmount formats an amount with a decimal comma, as field 32A expects.
func finAmount(m *domain.SwiftMessage) string {
	return strings.Replace(m.Amount.StringFixed(2), ".", ",", 1)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
