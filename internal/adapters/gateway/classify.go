package gateway

import (
	"errors"
	"net/http"
)

// RecommendedAction tells the operator what to do about a portal error.
type RecommendedAction string

const (
	ActionRetryLater     RecommendedAction = "RETRY_LATER"
	ActionFixSubmission  RecommendedAction = "FIX_SUBMISSION"
	ActionContactSupport RecommendedAction = "CONTACT_SUPPORT"
)

// Classification is the user-facing reading of a portal error.
type Classification struct {
	UserMessage string
	Action      RecommendedAction
}

// portalCodeTable maps known portal error codes to classifications. Codes
// take precedence over the HTTP status class.
var portalCodeTable = map[string]Classification{
	"CE-4001": {UserMessage: "Nomor aju tidak ditemukan, periksa kembali nomor pengajuan.", Action: ActionFixSubmission},
	"CE-4002": {UserMessage: "NPWP tidak terdaftar pada kantor pabean yang dipilih.", Action: ActionFixSubmission},
	"CE-4003": {UserMessage: "Data dokumen tidak lengkap atau tidak valid.", Action: ActionFixSubmission},
	"CE-4290": {UserMessage: "Batas permintaan portal tercapai, coba lagi beberapa saat lagi.", Action: ActionRetryLater},
	"CE-5001": {UserMessage: "Portal sedang dalam pemeliharaan, coba lagi nanti.", Action: ActionRetryLater},
	"CE-5099": {UserMessage: "Kesalahan internal portal, hubungi dukungan bea cukai.", Action: ActionContactSupport},
}

// Classify maps (HTTP status, portal error code) to a user message and a
// recommended action. Unknown combinations fall back on the status class.
func Classify(httpStatus int, portalCode string) Classification {
	if c, ok := portalCodeTable[portalCode]; ok {
		return c
	}

	switch {
	case httpStatus == 0:
		// Transport-level failure (connection refused, timeout).
		return Classification{
			UserMessage: "Tidak dapat terhubung ke portal, periksa koneksi dan coba lagi.",
			Action:      ActionRetryLater,
		}
	case httpStatus == http.StatusUnauthorized || httpStatus == http.StatusForbidden:
		return Classification{
			UserMessage: "Kredensial portal ditolak, hubungi administrator.",
			Action:      ActionContactSupport,
		}
	case httpStatus == http.StatusTooManyRequests:
		return Classification{
			UserMessage: "Terlalu banyak permintaan, coba lagi beberapa saat lagi.",
			Action:      ActionRetryLater,
		}
	case httpStatus >= 400 && httpStatus < 500:
		return Classification{
			UserMessage: "Portal menolak data yang dikirim, periksa isian dokumen.",
			Action:      ActionFixSubmission,
		}
	case httpStatus >= 500:
		return Classification{
			UserMessage: "Portal sedang bermasalah, coba lagi nanti.",
			Action:      ActionRetryLater,
		}
	default:
		return Classification{
			UserMessage: "Kesalahan tidak dikenal, hubungi dukungan.",
			Action:      ActionContactSupport,
		}
	}
}

// ClassifyErr reads a *Error out of err and classifies it; any other error
// is treated as a transport-level failure.
func ClassifyErr(err error) Classification {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return Classify(gwErr.HTTPStatus, gwErr.Code)
	}
	return Classify(0, "")
}
