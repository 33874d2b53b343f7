package ability

import (
	"context"
	"fmt"
	"strings"

	"github.com/duetml/duet/internal/core"
	"github.com/duetml/duet/pkg/log"
)

// Kind selects which one-shot template runs over a transcript.
type Kind string

const (
	KindPost    Kind = "post"
	KindMemo    Kind = "memo"
	KindArticle Kind = "article"
	KindRetro   Kind = "retro"
)

var templates = map[Kind]string{
	KindPost: `Turn the following conversation into a short, upbeat social media
post in the voices of its participants. Keep it under 280 characters. Reply
with the post only.

%s`,
	KindMemo: `Distill the following conversation into a knowledge memo: a title
line, then bullet points of the concrete facts and decisions worth keeping.
Reply with the memo only.

%s`,
	KindArticle: `Expand the following conversation into a short article of three
or four paragraphs, written in a light conversational tone. Reply with the
article only.

%s`,
	KindRetro: `Write a brief retrospective of the following conversation: what
went well, what was tricky, and one thing to try next time. Reply with the
retrospective only.

%s`,
}

// Service runs reaction-triggered abilities. Each run is one generation call,
// fully independent of the turn pipeline.
type Service struct {
	gen core.Generator
}

func New(gen core.Generator) *Service {
	return &Service{gen: gen}
}

func (s *Service) Run(ctx context.Context, kind Kind, transcript string) (string, error) {
	template, ok := templates[kind]
	if !ok {
		return "", fmt.Errorf("unknown ability %q", kind)
	}
	if strings.TrimSpace(transcript) == "" {
		return "", fmt.Errorf("empty transcript")
	}

	out, err := s.gen.Generate(ctx, "", fmt.Sprintf(template, transcript))
	if err != nil {
		return "", fmt.Errorf("ability %s failed: %w", kind, err)
	}

	log.FromCtx(ctx).Debug().Str("ability", string(kind)).Msg("ability completed")
	return strings.TrimSpace(out), nil
}

// Kinds lists the available abilities for surface help text.
func Kinds() []Kind {
	return []Kind{KindPost, KindMemo, KindArticle, KindRetro}
}
