package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"aidledger/internal/verification"
	"aidledger/internal/verification/handler/mocks"
	id "aidledger/pkg/domain"
	dErrors "aidledger/pkg/domain-errors"
	"aidledger/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  http.Handler
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)

	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	h.RegisterCallbacks(r)
	s.router = r
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) TestVerify() {
	s.Run("accepted request returns the oracle request id", func() {
		recordID := id.NewRecordID()
		packageID := id.NewPackageID()
		oracleID := id.NewRequestID()
		s.service.EXPECT().
			Request(gomock.Any(), recordID, packageID).
			Return(oracleID, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/verifications", map[string]string{
			"record_id":  recordID.String(),
			"package_id": packageID.String(),
		})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusAccepted)
		resp := testutil.UnmarshalResponse[RequestedResponse](s.T(), rr)
		s.Equal(oracleID.String(), resp.OracleRequestID)
	})

	s.Run("malformed record id is rejected before the service", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/verifications", map[string]string{
			"record_id":  "not-a-uuid",
			"package_id": id.NewPackageID().String(),
		})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		testutil.AssertErrorCode(s.T(), rr, "invalid_input")
	})

	s.Run("unknown record maps to 404", func() {
		recordID := id.NewRecordID()
		packageID := id.NewPackageID()
		s.service.EXPECT().
			Request(gomock.Any(), recordID, packageID).
			Return(id.RequestID{}, dErrors.New(dErrors.CodeNotFound, "record not found"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/verifications", map[string]string{
			"record_id":  recordID.String(),
			"package_id": packageID.String(),
		})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
		testutil.AssertErrorCode(s.T(), rr, "not_found")
	})
}

func (s *HandlerSuite) TestGet() {
	s.Run("unrevealed result hides scores", func() {
		v := &verification.Verification{
			ID:         id.NewVerificationID(),
			RecordID:   id.NewRecordID(),
			PackageID:  id.NewPackageID(),
			VerifiedAt: time.Now(),
		}
		s.service.EXPECT().
			Get(gomock.Any(), v.ID).
			Return(v, &verification.Result{}, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/verifications/"+v.ID.String(), nil)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[VerificationResponse](s.T(), rr)
		s.False(resp.IsRevealed)
		s.Nil(resp.Eligibility)
		s.Nil(resp.Priority)
	})

	s.Run("revealed result carries scores", func() {
		v := &verification.Verification{ID: id.NewVerificationID()}
		result := &verification.Result{Eligibility: 100, Priority: 80, Revealed: true}
		s.service.EXPECT().
			Get(gomock.Any(), v.ID).
			Return(v, result, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/verifications/"+v.ID.String(), nil)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[VerificationResponse](s.T(), rr)
		s.True(resp.IsRevealed)
		s.Require().NotNil(resp.Eligibility)
		s.Require().NotNil(resp.Priority)
		s.Equal(100, *resp.Eligibility)
		s.Equal(80, *resp.Priority)
	})
}

func (s *HandlerSuite) TestReveal() {
	s.Run("already revealed maps to 409", func() {
		vid := id.NewVerificationID()
		s.service.EXPECT().
			RequestReveal(gomock.Any(), vid).
			Return(id.RequestID{}, dErrors.New(dErrors.CodeAlreadyRevealed, "result already revealed"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/verifications/"+vid.String()+"/reveal", nil)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusConflict)
		testutil.AssertErrorCode(s.T(), rr, "already_revealed")
	})
}

func (s *HandlerSuite) TestCallbacks() {
	callbackBody := func(requestID string) map[string]any {
		return map[string]any{
			"request_id": requestID,
			"cleartexts": [][]byte{[]byte("a"), []byte("b"), []byte("c")},
			"proof":      []byte("sig"),
		}
	}

	s.Run("accepted eligibility callback returns the verification id", func() {
		requestID := id.NewRequestID()
		vid := id.NewVerificationID()
		s.service.EXPECT().
			HandleEligibilityCallback(gomock.Any(), requestID, gomock.Any(), gomock.Any()).
			Return(vid, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/oracle/verification", callbackBody(requestID.String()))
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[CallbackAcceptedResponse](s.T(), rr)
		s.Equal(vid.String(), resp.VerificationID)
	})

	// Every rejection below must be byte-for-byte identical so the callback
	// channel cannot be used to probe for outstanding request IDs.
	s.Run("unknown request id gets the constant rejection", func() {
		requestID := id.NewRequestID()
		s.service.EXPECT().
			HandleEligibilityCallback(gomock.Any(), requestID, gomock.Any(), gomock.Any()).
			Return(id.VerificationID{}, dErrors.New(dErrors.CodeUnknownRequest, "no outstanding request for id"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/oracle/verification", callbackBody(requestID.String()))
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
		s.JSONEq(`{"error":"callback_rejected"}`, rr.Body.String())
	})

	s.Run("invalid proof gets the constant rejection", func() {
		requestID := id.NewRequestID()
		s.service.EXPECT().
			HandleRevealCallback(gomock.Any(), requestID, gomock.Any(), gomock.Any()).
			Return(dErrors.New(dErrors.CodeInvalidProof, "proof verification failed"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/oracle/reveal", callbackBody(requestID.String()))
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
		s.JSONEq(`{"error":"callback_rejected"}`, rr.Body.String())
	})

	s.Run("malformed request id gets the constant rejection", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/oracle/verification", callbackBody("not-a-uuid"))
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
		s.JSONEq(`{"error":"callback_rejected"}`, rr.Body.String())
	})

	s.Run("unparseable body gets the constant rejection", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/oracle/reveal", nil)
		req.Body = http.NoBody
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
		s.JSONEq(`{"error":"callback_rejected"}`, rr.Body.String())
	})

	s.Run("internal failure is not flattened", func() {
		requestID := id.NewRequestID()
		s.service.EXPECT().
			HandleRevealCallback(gomock.Any(), requestID, gomock.Any(), gomock.Any()).
			Return(dErrors.New(dErrors.CodeInternal, "store down"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/oracle/reveal", callbackBody(requestID.String()))
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
		testutil.AssertErrorCode(s.T(), rr, "internal_error")
	})
}
