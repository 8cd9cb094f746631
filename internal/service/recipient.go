package service

import (
	"context"
	"fmt"
	"log"

	"loyaltypush/internal/model"
	"loyaltypush/internal/repository"
)

// RecipientResolver turns a conversation into the push tokens to notify.
type RecipientResolver struct {
	memberRepo  repository.ChatMemberRepository
	profileRepo repository.ProfileRepository
}

func NewRecipientResolver(memberRepo repository.ChatMemberRepository, profileRepo repository.ProfileRepository) *RecipientResolver {
	return &RecipientResolver{
		memberRepo:  memberRepo,
		profileRepo: profileRepo,
	}
}

// ResolveRecipientTokens returns the tokens for rc. It never returns nil:
// on a lookup failure the slice is empty and the failure is returned
// alongside it. Order is unspecified.
func (r *RecipientResolver) ResolveRecipientTokens(ctx context.Context, rc model.RecipientContext) ([]string, *model.Failure) {
	if rc.IsGroup {
		return r.groupTokens(ctx, rc.ChatID, rc.SenderID)
	}
	return r.friendTokens(ctx, rc.FriendID)
}

// groupTokens collects every other member's token, deduplicated by value.
func (r *RecipientResolver) groupTokens(ctx context.Context, chatID, senderID string) ([]string, *model.Failure) {
	memberIDs, err := r.memberRepo.GetMemberIDsExcept(ctx, chatID, senderID)
	if err != nil {
		log.Printf("[RecipientResolver] Error fetching group members: chat=%s err=%v", chatID, err)
		return []string{}, model.NewFailure(model.FailureLookup, "resolve group members", err)
	}
	if len(memberIDs) == 0 {
		return []string{}, nil
	}

	raw, err := r.profileRepo.GetPushTokens(ctx, memberIDs)
	if err != nil {
		log.Printf("[RecipientResolver] Error fetching profiles of group members: chat=%s err=%v", chatID, err)
		return []string{}, model.NewFailure(model.FailureLookup, "resolve group tokens", err)
	}

	return uniqueTokens(raw), nil
}

// friendTokens looks up the single friend of a direct chat.
func (r *RecipientResolver) friendTokens(ctx context.Context, friendID string) ([]string, *model.Failure) {
	if friendID == "" {
		log.Printf("[RecipientResolver] Direct chat without friend id")
		return []string{}, model.NewFailure(model.FailureInvalidInput, "resolve friend token", fmt.Errorf("missing friend id"))
	}

	raw, err := r.profileRepo.GetPushTokens(ctx, []string{friendID})
	if err != nil {
		log.Printf("[RecipientResolver] Error fetching friend profile: friend=%s err=%v", friendID, err)
		return []string{}, model.NewFailure(model.FailureLookup, "resolve friend token", err)
	}

	return nonEmpty(raw), nil
}

func nonEmpty(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func uniqueTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range nonEmpty(tokens) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
