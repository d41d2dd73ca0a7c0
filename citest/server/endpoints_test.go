package server_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/DanielPonttes/Chatbot-generico/citest/testutil"
	"github.com/DanielPonttes/Chatbot-generico/pkg/types"
)

var _ = Describe("Server Endpoints", func() {
	var sessionID string

	BeforeEach(func() {
		sessionID = testutil.NewSessionID()
		testServer.LLM.Reset()
	})

	AfterEach(func() {
		testServer.LLM.Recover()
		_ = client.ClearSession(ctx, sessionID)
	})

	Describe("POST /chat", func() {
		It("should answer and persist the turn", func() {
			reply, err := client.Chat(ctx, sessionID, "Olá!")
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.SessionID).To(Equal(sessionID))
			Expect(reply.Reply).NotTo(BeEmpty())
			Expect(reply.Provider).To(Equal("ollama"))
			Expect(reply.Model).To(Equal(testServer.Config.Provider.Ollama.Model))

			history, err := client.History(ctx, sessionID)
			Expect(err).NotTo(HaveOccurred())
			Expect(history.Messages).To(HaveLen(2))
			Expect(history.Messages[0].Role).To(Equal("user"))
			Expect(history.Messages[0].Content).To(Equal("Olá!"))
			Expect(history.Messages[1].Role).To(Equal("assistant"))
			Expect(history.Messages[1].Content).To(Equal(reply.Reply))
		})

		It("should send prior turns to the backend", func() {
			_, err := client.Chat(ctx, sessionID, "Primeira mensagem")
			Expect(err).NotTo(HaveOccurred())
			_, err = client.Chat(ctx, sessionID, "Segunda mensagem")
			Expect(err).NotTo(HaveOccurred())

			call := testServer.LLM.LastRequest()
			Expect(call).NotTo(BeNil())

			var contents []string
			for _, msg := range call.Messages {
				contents = append(contents, msg.Content)
			}
			Expect(contents).To(ContainElement("Primeira mensagem"))
			Expect(contents).To(ContainElement("Segunda mensagem"))
		})

		It("should honor a model override for one call", func() {
			resp, err := client.Post(ctx, "/chat", types.ChatRequest{
				SessionID:     sessionID,
				Message:       "Oi",
				ModelOverride: "qwen2.5:1.5b",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.IsSuccess()).To(BeTrue(), resp.String())

			var reply types.ChatResponse
			Expect(resp.JSON(&reply)).To(Succeed())
			Expect(reply.Model).To(Equal("qwen2.5:1.5b"))
			Expect(testServer.LLM.LastRequest().Model).To(Equal("qwen2.5:1.5b"))
		})

		It("should reject an empty message with 422", func() {
			resp, err := client.Post(ctx, "/chat", types.ChatRequest{
				SessionID: sessionID,
				Message:   "",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(422))

			apiErr, err := resp.Error()
			Expect(err).NotTo(HaveOccurred())
			Expect(apiErr.Kind).To(Equal("validation_error"))
		})

		It("should reject an oversized session id with 422", func() {
			resp, err := client.Post(ctx, "/chat", types.ChatRequest{
				SessionID: strings.Repeat("x", 101),
				Message:   "Oi",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(422))
		})

		It("should map an unknown model to 503 model_not_found", func() {
			resp, err := client.Post(ctx, "/chat", types.ChatRequest{
				SessionID:     sessionID,
				Message:       "Oi",
				ModelOverride: "modelo-inexistente",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(503))

			apiErr, err := resp.Error()
			Expect(err).NotTo(HaveOccurred())
			Expect(apiErr.Kind).To(Equal("model_not_found"))
			Expect(apiErr.Message).To(ContainSubstring("modelo-inexistente"))
		})

		It("should map a backend failure to 500 llm_error and keep memory clean", func() {
			testServer.LLM.FailWith(500)

			resp, err := client.Post(ctx, "/chat", types.ChatRequest{
				SessionID: sessionID,
				Message:   "Oi",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(500))

			apiErr, err := resp.Error()
			Expect(err).NotTo(HaveOccurred())
			Expect(apiErr.Kind).To(Equal("llm_error"))

			testServer.LLM.Recover()

			history, err := client.History(ctx, sessionID)
			Expect(err).NotTo(HaveOccurred())
			Expect(history.Messages).To(BeEmpty(), "Failed turns must not be persisted")
		})
	})

	Describe("POST /chat/proactive", func() {
		It("should compose a persona message without touching memory", func() {
			reply, err := client.Proactive(ctx, types.ProactiveRequest{
				PersonaID:       "coach",
				TargetProfileID: "endividado",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Reply).NotTo(BeEmpty())
			Expect(reply.Provider).To(Equal("ollama"))

			call := testServer.LLM.LastRequest()
			Expect(call).NotTo(BeNil())
			Expect(call.Messages).To(HaveLen(2), "system prompt plus composed prompt only")
		})

		It("should return 404 for an unknown persona", func() {
			resp, err := client.Post(ctx, "/chat/proactive", types.ProactiveRequest{
				PersonaID: "persona-fantasma",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(404))

			apiErr, err := resp.Error()
			Expect(err).NotTo(HaveOccurred())
			Expect(apiErr.Kind).To(Equal("persona_not_found"))
			Expect(apiErr.Message).To(ContainSubstring("persona-fantasma"))
		})

		It("should apply a persona override", func() {
			_, err := client.Proactive(ctx, types.ProactiveRequest{
				PersonaID: "analista",
				PersonaOverride: &types.PersonaOverride{
					SystemPrompt: "Fale exclusivamente em rimas.",
				},
			})
			Expect(err).NotTo(HaveOccurred())

			call := testServer.LLM.LastRequest()
			Expect(call).NotTo(BeNil())

			var all []string
			for _, msg := range call.Messages {
				all = append(all, msg.Content)
			}
			Expect(strings.Join(all, "\n")).To(ContainSubstring("Fale exclusivamente em rimas."))
		})
	})

	Describe("Session endpoints", func() {
		It("should return an empty history for an unknown session", func() {
			history, err := client.History(ctx, "sessao-que-nao-existe")
			Expect(err).NotTo(HaveOccurred())
			Expect(history.Messages).To(BeEmpty())
		})

		It("should clear a session with 204", func() {
			_, err := client.Chat(ctx, sessionID, "Oi")
			Expect(err).NotTo(HaveOccurred())

			resp, err := client.Delete(ctx, "/chat/"+sessionID)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(204))

			history, err := client.History(ctx, sessionID)
			Expect(err).NotTo(HaveOccurred())
			Expect(history.Messages).To(BeEmpty())
		})
	})

	Describe("Catalog endpoints", func() {
		It("should list the built-in personas", func() {
			personas, err := client.Personas(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(len(personas)).To(BeNumerically(">=", 3))

			var ids []string
			for _, p := range personas {
				ids = append(ids, p.ID)
			}
			Expect(ids).To(ContainElements("analista", "coach", "amigo"))
		})

		It("should list the target profiles", func() {
			profiles, err := client.TargetProfiles(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(len(profiles)).To(BeNumerically(">=", 3))
		})
	})

	Describe("GET /health", func() {
		It("should report healthy while the backend answers", func() {
			health, err := client.Health(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(health.Status).To(Equal("healthy"))
			Expect(health.Provider).To(Equal("ollama"))
			Expect(health.ProviderAvailable).To(BeTrue())
		})
	})

	Describe("POST /rag/search", func() {
		It("should return ranked passages with metadata", func() {
			result, err := client.RAGSearch(ctx, "O limite do cartão pode ser consultado no aplicativo.", 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Results).NotTo(BeEmpty())
			Expect(len(result.Results)).To(BeNumerically("<=", 2))
			Expect(result.QueryEcho).To(ContainSubstring("limite do cartão"))

			top := result.Results[0]
			Expect(top.Content).To(ContainSubstring("limite do cartão"))
			Expect(top.Source).To(Equal("cartoes.pdf"))
			Expect(top.Page).To(Equal(3))
		})

		It("should reject a blank query with 422", func() {
			resp, err := client.Post(ctx, "/rag/search", types.RAGSearchRequest{Query: "   "})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(422))
		})
	})

	Describe("Unknown routes", func() {
		It("should answer with the error envelope", func() {
			resp, err := client.Get(ctx, "/rota-inexistente")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(404))

			apiErr, err := resp.Error()
			Expect(err).NotTo(HaveOccurred())
			Expect(apiErr.Kind).To(Equal("not_found"))
		})
	})
})
