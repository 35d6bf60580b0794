package reveal

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/tengfone/clockblocker/internal/cache"
)

// ClockURL is where the bot finally sends people who want the actual time.
const ClockURL = "https://www.clockfaceonline.co.uk/clocks/digital/"

const (
	ponderIntro  = "🤔 Before I tell you the time, let's ponder the nature of time itself..."
	guessIntro   = "🔮 Now, let me make an educated guess about the current time..."
	scienceIntro = "🧪 That didn't feel right. Let me try a more scientific approach..."

	closingText = "😅 *sigh* You know what? I give up.\n\n" +
		"After all this philosophical contemplation, wild guessing, and questionable scientific methods, " +
		"maybe you should just check the time yourself:\n\n" +
		"🔗 " + ClockURL + "\n\n" +
		"(I'll be here questioning the nature of temporal reality if you need me again...)"
)

const (
	philosophyPrompt = `Provide a brief but profound philosophical discussion about the nature of time.
Make it somewhat humorous but also genuinely thought-provoking.
Keep it under 150 words.`

	absurdGuessPrompt = `Make an absurd guess about what time it is right now using extremely questionable logic.
Be creative and humorous. Keep it under 100 words.`
)

var estimationMethods = []string{
	"Based on my analysis of current internet meme trends, which clearly indicate a temporal shift in the collective consciousness...",
	"By measuring the quantum fluctuations in my CPU's processing speed and converting them to temporal coordinates...",
	"After consulting the ancient art of chronological divination through random number generation...",
	"Using advanced calculations based on the number of cat videos posted in the last hour...",
	"By interpreting the cosmic background radiation as a temporal signal...",
}

// Chat is the conversation a sequence is delivered to.
type Chat interface {
	Typing(ctx context.Context) error
	Send(ctx context.Context, text string) error
	// SendStyled sends text with Markdown styling enabled.
	SendStyled(ctx context.Context, text string) error
}

type Generator interface {
	Generate(ctx context.Context, prompt string) string
}

type Cache interface {
	GetOrCompute(ctx context.Context, key cache.Key, produce func(context.Context) string) string
}

// Sequence delivers the scripted time reveal.
type Sequence struct {
	cache     Cache
	generator Generator

	mu  sync.Mutex
	rng *rand.Rand
}

func New(c Cache, g Generator, rng *rand.Rand) *Sequence {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Sequence{
		cache:     c,
		generator: g,
		rng:       rng,
	}
}

type step struct {
	name string
	text func(ctx context.Context) string
}

func fixed(text string) func(context.Context) string {
	return func(context.Context) string { return text }
}

// Run sends every message of the sequence in order. A typing indicator
// precedes each message except the closing one. The first failed platform
// call stops the sequence.
func (s *Sequence) Run(ctx context.Context, chat Chat) error {
	steps := []step{
		{"ponder intro", fixed(ponderIntro)},
		{"philosophical discussion", s.philosophicalDiscussion},
		{"guess intro", fixed(guessIntro)},
		{"absurd guess", s.absurdGuess},
		{"science intro", fixed(scienceIntro)},
		{"estimation", func(context.Context) string { return s.Estimate() }},
	}

	for _, st := range steps {
		if err := chat.Typing(ctx); err != nil {
			return fmt.Errorf("typing before %s: %w", st.name, err)
		}
		if err := chat.Send(ctx, st.text(ctx)); err != nil {
			return fmt.Errorf("sending %s: %w", st.name, err)
		}
	}

	if err := chat.SendStyled(ctx, closingText); err != nil {
		return fmt.Errorf("sending closing message: %w", err)
	}
	return nil
}

func (s *Sequence) philosophicalDiscussion(ctx context.Context) string {
	return s.cache.GetOrCompute(ctx, cache.PhilosophicalDiscussion, func(ctx context.Context) string {
		return s.generator.Generate(ctx, philosophyPrompt)
	})
}

func (s *Sequence) absurdGuess(ctx context.Context) string {
	return s.cache.GetOrCompute(ctx, cache.AbsurdGuess, func(ctx context.Context) string {
		return s.generator.Generate(ctx, absurdGuessPrompt)
	})
}

// Estimate makes up a time from local randomness. It is never cached.
func (s *Sequence) Estimate() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	method := estimationMethods[s.rng.IntN(len(estimationMethods))]
	hour := s.rng.IntN(12) + 1
	minute := s.rng.IntN(60)
	meridiem := "PM"
	if s.rng.Float64() > 0.5 {
		meridiem = "AM"
	}
	return fmt.Sprintf("%s I estimate it's %d:%d %s!", method, hour, minute, meridiem)
}
