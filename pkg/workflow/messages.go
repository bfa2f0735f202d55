package workflow

import (
	"github.com/ibanking/tuitionpay/pkg/core"
	"github.com/ibanking/tuitionpay/pkg/i18n"
)

var (
	msgConsentRequired   = i18n.Message{ID: "ConsentRequired"}
	msgLookupRequired    = i18n.Message{ID: "LookupRequired"}
	msgStudentIDRequired = i18n.Message{ID: "StudentIDRequired"}
	msgPaymentInProgress = i18n.Message{ID: "PaymentInProgress"}
	msgProfileLoadFailed = i18n.Message{ID: "ProfileLoadFailed"}
	msgReauthenticate    = i18n.Message{ID: "Reauthenticate"}
	msgInvalidAmount     = i18n.Message{ID: "InvalidAmount"}
	msgLookupFailed      = i18n.Message{ID: "LookupFailed"}
	msgPaymentFailed     = i18n.Message{ID: "PaymentFailed"}
)

func otpSent(paymentID string) i18n.Message {
	return i18n.Message{ID: "OtpSent", Data: i18n.Template{"PaymentID": paymentID}}
}

func otpAlreadyRequested(paymentID string) i18n.Message {
	return i18n.Message{ID: "OtpAlreadyRequested", Data: i18n.Template{"PaymentID": paymentID}}
}

// lookupErrorMessage shows the server's not-found text when it sent one.
func lookupErrorMessage(err error, studentID string) i18n.Message {
	switch core.KindOf(err) {
	case core.KindNotFound:
		if reason := core.ReasonOf(err); reason != "" {
			return i18n.Message{ID: "LookupRejected", Data: i18n.Template{"Reason": reason}}
		}
		return i18n.Message{ID: "TuitionNotFound", Data: i18n.Template{"StudentID": studentID}}
	case core.KindUnauthorized:
		return msgReauthenticate
	case core.KindInvalidInput:
		return msgStudentIDRequired
	default:
		return msgLookupFailed
	}
}

// paymentErrorMessage shows business rejections verbatim.
func paymentErrorMessage(err error) i18n.Message {
	switch core.KindOf(err) {
	case core.KindUnauthorized:
		return msgReauthenticate
	case core.KindInvalidAmount:
		return msgInvalidAmount
	case core.KindServerRejected:
		if reason := core.ReasonOf(err); reason != "" {
			return i18n.Message{ID: "PaymentRejected", Data: i18n.Template{"Reason": reason}}
		}
		return msgPaymentFailed
	default:
		return msgPaymentFailed
	}
}
