package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"threadwatch.app/scout/internal/http/handler"
	"threadwatch.app/scout/internal/queue"
)

type mockProducer struct {
	enqueueFn func(ctx context.Context, msg queue.ActionMessage) error
	enqueued  []queue.ActionMessage
}

func (m *mockProducer) Enqueue(ctx context.Context, msg queue.ActionMessage) error {
	if m.enqueueFn != nil {
		if err := m.enqueueFn(ctx, msg); err != nil {
			return err
		}
	}
	m.enqueued = append(m.enqueued, msg)
	return nil
}

func (m *mockProducer) Close() error { return nil }

var _ = Describe("ActionHandler", func() {
	var (
		router   *gin.Engine
		producer *mockProducer
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		producer = &mockProducer{}
		h := handler.NewActionHandler(producer)
		router.POST("/actions/callback", h.Callback)
	})

	post := func(body any) *httptest.ResponseRecorder {
		payload, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		req := httptest.NewRequest(http.MethodPost, "/actions/callback", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("enqueues an approve click", func() {
		rec := post(gin.H{
			"approval_id": "8fKx2",
			"action":      "approve",
			"user_id":     "U123",
		})

		Expect(rec.Code).To(Equal(http.StatusAccepted))
		Expect(producer.enqueued).To(HaveLen(1))
		Expect(producer.enqueued[0].ApprovalID).To(Equal("8fKx2"))
		Expect(string(producer.enqueued[0].Action)).To(Equal("approve"))
	})

	It("carries edited text through for an edit", func() {
		rec := post(gin.H{
			"approval_id": "8fKx2",
			"action":      "edit",
			"user_id":     "U123",
			"edited_text": "shorter answer",
		})

		Expect(rec.Code).To(Equal(http.StatusAccepted))
		Expect(producer.enqueued[0].EditedText).To(Equal("shorter answer"))
	})

	It("rejects an edit without text", func() {
		rec := post(gin.H{
			"approval_id": "8fKx2",
			"action":      "edit",
			"user_id":     "U123",
		})

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(producer.enqueued).To(BeEmpty())
	})

	It("rejects an unknown action", func() {
		rec := post(gin.H{
			"approval_id": "8fKx2",
			"action":      "escalate",
			"user_id":     "U123",
		})

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(producer.enqueued).To(BeEmpty())
	})

	It("rejects a payload missing required fields", func() {
		rec := post(gin.H{"action": "approve"})

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 500 when the stream write fails", func() {
		producer.enqueueFn = func(context.Context, queue.ActionMessage) error {
			return errors.New("redis down")
		}

		rec := post(gin.H{
			"approval_id": "8fKx2",
			"action":      "reject",
			"user_id":     "U123",
		})

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
	})
})
