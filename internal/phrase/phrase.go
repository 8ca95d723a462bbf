// Package phrase supplies the text of synthetic keep-alive answers.
//
// The keep-alive emitter republishes a "still working" answer on every grace
// interval; sending the same sentence each time reads like a stuck loop to
// the caller, so the default source rotates through a small set of
// variations per language. Translation layers can plug in their own
// [Source] instead.
package phrase

import (
	"math/rand"
	"sync"
)

// Source yields the content for one synthetic keep-alive answer.
type Source interface {
	Pick() string
}

// DefaultLanguage is used when no or an unknown language is configured.
const DefaultLanguage = "en"

// variants maps a language code to its keep-alive message variations.
var variants = map[string][]string{
	"en": {
		"I'm still here and working on your request. Please take your time.",
		"Still waiting for your input. No rush, I'll keep the session open.",
		"The session is still active. Reply whenever you're ready.",
		"Just checking in - I'm keeping this conversation alive while you think.",
		"No answer yet, so I'm holding the line. Take whatever time you need.",
		"Still standing by for your response. The request remains open.",
		"Keeping the session warm while you prepare your reply.",
		"I haven't gone anywhere - still waiting for your message.",
		"Your input window is still open. Respond whenever convenient.",
		"Holding this conversation open until you're ready to continue.",
	},
	"vi": {
		"Tôi vẫn đang chờ phản hồi của bạn. Cứ từ từ nhé.",
		"Phiên làm việc vẫn đang mở, bạn trả lời khi nào sẵn sàng.",
		"Vẫn đang giữ kết nối trong lúc bạn suy nghĩ.",
		"Chưa nhận được câu trả lời, tôi sẽ tiếp tục chờ.",
		"Cuộc hội thoại vẫn đang hoạt động. Không cần vội.",
		"Tôi vẫn ở đây và đang chờ tin nhắn của bạn.",
		"Cửa sổ nhập liệu vẫn mở, bạn phản hồi lúc nào cũng được.",
		"Đang giữ phiên này mở cho đến khi bạn sẵn sàng.",
		"Vẫn đang đợi phản hồi, yêu cầu của bạn chưa đóng.",
		"Tôi sẽ duy trì cuộc trò chuyện trong lúc bạn chuẩn bị câu trả lời.",
	},
}

// SupportedLanguages returns the language codes with built-in variations.
func SupportedLanguages() []string {
	return []string{"en", "vi"}
}

// Rotation is the default Source. It picks a random variation for the
// configured language, never returning the same variation twice in a row.
// It is safe for concurrent use.
type Rotation struct {
	mu       sync.Mutex
	messages []string
	last     int
}

// NewRotation creates a Rotation for the given language code.
// Unknown languages fall back to English.
func NewRotation(language string) *Rotation {
	msgs, ok := variants[language]
	if !ok {
		msgs = variants[DefaultLanguage]
	}
	return &Rotation{messages: msgs, last: -1}
}

// Pick returns the next keep-alive message.
func (r *Rotation) Pick() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.messages) == 1 {
		return r.messages[0]
	}

	i := rand.Intn(len(r.messages))
	if i == r.last {
		i = (i + 1) % len(r.messages)
	}
	r.last = i
	return r.messages[i]
}
