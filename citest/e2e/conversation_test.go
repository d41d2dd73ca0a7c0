package e2e_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/DanielPonttes/Chatbot-generico/citest/testutil"
	"github.com/DanielPonttes/Chatbot-generico/pkg/types"
)

var _ = Describe("Conversational flows", func() {
	var sessionID string

	BeforeEach(func() {
		sessionID = testutil.NewSessionID()
		testServer.LLM.Reset()
	})

	AfterEach(func() {
		_ = client.ClearSession(ctx, sessionID)
	})

	It("remembers information given earlier in the conversation", func() {
		reply, err := client.Chat(ctx, sessionID, "Meu nome é Alice.")
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Reply).To(ContainSubstring("Alice"))

		reply, err = client.Chat(ctx, sessionID, "Qual é o meu nome?")
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Reply).To(ContainSubstring("Alice"),
			"the backend should see the introduction in the history")
	})

	It("forgets turns that fell out of the history window", func() {
		_, err := client.Chat(ctx, sessionID, "Meu nome é Alice.")
		Expect(err).NotTo(HaveOccurred())

		// Each turn stores two messages; three more turns push the
		// introduction past the six-message window.
		for _, msg := range []string{
			"Como economizar no mercado?",
			"E no transporte?",
			"Vale a pena assinatura de streaming?",
		} {
			_, err := client.Chat(ctx, sessionID, msg)
			Expect(err).NotTo(HaveOccurred())
		}

		reply, err := client.Chat(ctx, sessionID, "Qual é o meu nome?")
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Reply).To(ContainSubstring("ainda não me disse"))

		history, err := client.History(ctx, sessionID)
		Expect(err).NotTo(HaveOccurred())
		Expect(history.Messages).To(HaveLen(historyWindow))
		for _, msg := range history.Messages {
			Expect(msg.Content).NotTo(ContainSubstring("Meu nome é"),
				"evicted messages must not resurface")
		}
	})

	It("keeps sessions isolated from each other", func() {
		otherSession := testutil.NewSessionID()
		defer func() { _ = client.ClearSession(ctx, otherSession) }()

		_, err := client.Chat(ctx, sessionID, "Meu nome é Alice.")
		Expect(err).NotTo(HaveOccurred())

		reply, err := client.Chat(ctx, otherSession, "Qual é o meu nome?")
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Reply).To(ContainSubstring("ainda não me disse"))

		reply, err = client.Chat(ctx, sessionID, "Qual é o meu nome?")
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Reply).To(ContainSubstring("Alice"))
	})

	It("starts from a blank slate after the session is cleared", func() {
		_, err := client.Chat(ctx, sessionID, "Meu nome é Alice.")
		Expect(err).NotTo(HaveOccurred())
		_, err = client.Chat(ctx, sessionID, "Como estão minhas finanças?")
		Expect(err).NotTo(HaveOccurred())

		Expect(client.ClearSession(ctx, sessionID)).To(Succeed())

		history, err := client.History(ctx, sessionID)
		Expect(err).NotTo(HaveOccurred())
		Expect(history.Messages).To(BeEmpty())

		testServer.LLM.Reset()
		_, err = client.Chat(ctx, sessionID, "Oi de novo")
		Expect(err).NotTo(HaveOccurred())

		call := testServer.LLM.LastRequest()
		Expect(call).NotTo(BeNil())
		Expect(call.Messages).To(HaveLen(2),
			"a cleared session must send only the system prompt and the new message")
	})

	It("drives a proactive message with a persona from the YAML file", func() {
		personas, err := client.Personas(ctx)
		Expect(err).NotTo(HaveOccurred())

		var ids []string
		for _, p := range personas {
			ids = append(ids, p.ID)
		}
		Expect(ids).To(ContainElement("pirata"), "YAML personas should merge over the built-ins")

		reply, err := client.Proactive(ctx, types.ProactiveRequest{
			PersonaID:       "pirata",
			TargetProfileID: "marujo",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Reply).NotTo(BeEmpty())

		call := testServer.LLM.LastRequest()
		Expect(call).NotTo(BeNil())

		var prompt string
		for _, msg := range call.Messages {
			prompt += msg.Content + "\n"
		}
		Expect(prompt).To(ContainSubstring("pirata do mar aberto"))
		Expect(prompt).To(ContainSubstring("nunca organizou as próprias finanças"))
	})
})
