package server_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/DanielPonttes/Chatbot-generico/citest/testutil"
)

var _ = Describe("GET /events", func() {
	var sse *testutil.SSEClient

	BeforeEach(func() {
		sse = testServer.SSEClient()
		Expect(sse.Connect(ctx, "/events")).To(Succeed())
		// Give the subscription a moment to register before publishing.
		time.Sleep(100 * time.Millisecond)
	})

	AfterEach(func() {
		sse.Close()
	})

	It("should stream chat.message events", func() {
		sessionID := testutil.NewSessionID()
		_, err := client.Chat(ctx, sessionID, "Olá!")
		Expect(err).NotTo(HaveOccurred())

		data, err := sse.WaitForSessionEvent("chat.message", sessionID, 5*time.Second)
		Expect(err).NotTo(HaveOccurred())
		Expect(data.Provider).To(Equal("ollama"))
	})

	It("should stream chat.session_cleared events", func() {
		sessionID := testutil.NewSessionID()
		_, err := client.Chat(ctx, sessionID, "Oi")
		Expect(err).NotTo(HaveOccurred())
		Expect(client.ClearSession(ctx, sessionID)).To(Succeed())

		_, err = sse.WaitForSessionEvent("chat.session_cleared", sessionID, 5*time.Second)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should stream rag.search events", func() {
		_, err := client.RAGSearch(ctx, "limite do cartão", 2)
		Expect(err).NotTo(HaveOccurred())

		evt, err := sse.WaitForEvent("rag.search", 5*time.Second)
		Expect(err).NotTo(HaveOccurred())

		data, err := evt.ParseRAGEvent()
		Expect(err).NotTo(HaveOccurred())
		Expect(data.Query).To(ContainSubstring("limite"))
	})
})
