package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"huddle_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoMembershipStore implements MembershipStore on top of DynamoDB.
// Cross-session invariants (capacity ceiling, one vote per cycle, one
// unprocessed exit request) live in condition expressions so concurrent
// engine instances cannot race past them.
type DynamoMembershipStore struct {
	Dynamo *DynamoService
}

func NewDynamoMembershipStore(dynamo *DynamoService) *DynamoMembershipStore {
	return &DynamoMembershipStore{Dynamo: dynamo}
}

// GetProfile retrieves a user profile by ID
func (s *DynamoMembershipStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	key := map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}

	item, err := s.Dynamo.GetItem(ctx, models.UserProfilesTable, key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("profile %s: %w", userID, ErrNotFound)
	}

	var profile models.UserProfile
	if err := attributevalue.UnmarshalMap(item, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &profile, nil
}

// PutProfile inserts or replaces a user profile
func (s *DynamoMembershipStore) PutProfile(ctx context.Context, profile models.UserProfile) error {
	return s.Dynamo.PutItem(ctx, models.UserProfilesTable, profile)
}

// CountProfiles returns the registered population size
func (s *DynamoMembershipStore) CountProfiles(ctx context.Context) (int, error) {
	return s.Dynamo.CountItems(ctx, models.UserProfilesTable)
}

// GetGroup retrieves a group by ID
func (s *DynamoMembershipStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	key := map[string]types.AttributeValue{
		"groupId": &types.AttributeValueMemberS{Value: groupID},
	}

	item, err := s.Dynamo.GetItem(ctx, models.GroupsTable, key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("group %s: %w", groupID, ErrNotFound)
	}

	var group models.Group
	if err := attributevalue.UnmarshalMap(item, &group); err != nil {
		return nil, fmt.Errorf("failed to unmarshal group: %w", err)
	}
	return &group, nil
}

// PutGroup inserts a group; only used at creation, lifecycle mutations go
// through UpdateGroupLifecycle and the membership counter updates
func (s *DynamoMembershipStore) PutGroup(ctx context.Context, group models.Group) error {
	return s.Dynamo.PutItem(ctx, models.GroupsTable, group)
}

// ListGroupsByStage returns all groups in a stored stage, newest first
func (s *DynamoMembershipStore) ListGroupsByStage(ctx context.Context, stage string) ([]models.Group, error) {
	filterExpression := "#stage = :stage"
	expressionNames := map[string]string{"#stage": "stage"}
	expressionValues := map[string]types.AttributeValue{
		":stage": &types.AttributeValueMemberS{Value: stage},
	}

	var groups []models.Group
	err := s.Dynamo.ScanItems(ctx, models.GroupsTable, filterExpression, expressionValues, expressionNames, &groups)
	if err != nil {
		return nil, err
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].CreatedAt.After(groups[j].CreatedAt)
	})
	return groups, nil
}

// UpdateGroupLifecycle writes only the lifecycle fields present in the
// update, leaving the membership counter alone
func (s *DynamoMembershipStore) UpdateGroupLifecycle(ctx context.Context, groupID string, update GroupLifecycleUpdate) error {
	key := map[string]types.AttributeValue{
		"groupId": &types.AttributeValueMemberS{Value: groupID},
	}

	var sets []string
	expressionValues := map[string]types.AttributeValue{}
	expressionNames := map[string]string{}

	if update.Stage != "" {
		expressionNames["#stage"] = "stage"
		expressionValues[":stage"] = &types.AttributeValueMemberS{Value: update.Stage}
		sets = append(sets, "#stage = :stage")
	}
	if update.VoteDeadline != nil {
		expressionValues[":voteDeadline"] = timeAttr(*update.VoteDeadline)
		sets = append(sets, "voteDeadline = :voteDeadline")
	}
	if update.VoteCycle != nil {
		expressionValues[":voteCycle"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", *update.VoteCycle)}
		sets = append(sets, "voteCycle = :voteCycle")
	}
	if update.Extended != nil {
		expressionValues[":extended"] = &types.AttributeValueMemberBOOL{Value: *update.Extended}
		sets = append(sets, "extended = :extended")
	}
	if update.NextVoteDate != nil {
		expressionValues[":nextVoteDate"] = timeAttr(*update.NextVoteDate)
		sets = append(sets, "nextVoteDate = :nextVoteDate")
	}
	if update.ExtendedAt != nil {
		expressionValues[":extendedAt"] = timeAttr(*update.ExtendedAt)
		sets = append(sets, "extendedAt = :extendedAt")
	}

	updateExpression := ""
	if len(sets) > 0 {
		updateExpression = "SET " + strings.Join(sets, ", ")
	}
	if update.ClearVoteDeadline {
		updateExpression = strings.TrimSpace(updateExpression + " REMOVE voteDeadline")
	}
	if updateExpression == "" {
		return nil
	}
	if len(expressionNames) == 0 {
		expressionNames = nil
	}

	_, err := s.Dynamo.UpdateItem(ctx, models.GroupsTable, updateExpression, key, expressionValues, expressionNames)
	return err
}

// AddMemberIfCapacity performs the capacity-checked join. The conditional
// counter increment on the group row is the authority; two concurrent
// joiners cannot both pass a stale read because the condition is evaluated
// by the store at write time.
func (s *DynamoMembershipStore) AddMemberIfCapacity(ctx context.Context, groupID, userID string) error {
	groupKey := map[string]types.AttributeValue{
		"groupId": &types.AttributeValueMemberS{Value: groupID},
	}

	err := s.Dynamo.UpdateItemWithCondition(ctx, models.GroupsTable,
		"SET currentMembers = currentMembers + :one",
		"(#stage = :active OR #stage = :extended) AND currentMembers < capacity",
		groupKey,
		map[string]types.AttributeValue{
			":one":      &types.AttributeValueMemberN{Value: "1"},
			":active":   &types.AttributeValueMemberS{Value: models.StageActive},
			":extended": &types.AttributeValueMemberS{Value: models.StageExtended},
		},
		map[string]string{"#stage": "stage"},
	)
	if err != nil {
		if errors.Is(err, ErrConditionalCheckFailed) {
			return ErrGroupFull
		}
		return err
	}

	membership := models.Membership{
		GroupID:  groupID,
		UserID:   userID,
		JoinedAt: time.Now().UTC(),
	}
	err = s.Dynamo.PutItemWithCondition(ctx, models.GroupMembersTable, membership,
		"attribute_not_exists(userId)", nil, nil)
	if err != nil {
		if errors.Is(err, ErrConditionalCheckFailed) {
			// Already a member; hand back the reserved slot and succeed.
			s.decrementMembers(ctx, groupID)
			return nil
		}
		// The slot was reserved but the membership row failed; release it so
		// the counter does not drift.
		s.decrementMembers(ctx, groupID)
		return err
	}
	return nil
}

// RemoveMember deletes a membership and releases its capacity slot.
// Removing an absent membership is a no-op.
func (s *DynamoMembershipStore) RemoveMember(ctx context.Context, groupID, userID string) error {
	key := map[string]types.AttributeValue{
		"groupId": &types.AttributeValueMemberS{Value: groupID},
		"userId":  &types.AttributeValueMemberS{Value: userID},
	}

	err := s.Dynamo.DeleteItemWithCondition(ctx, models.GroupMembersTable, key, "attribute_exists(userId)")
	if err != nil {
		if errors.Is(err, ErrConditionalCheckFailed) {
			return nil
		}
		return err
	}

	s.decrementMembers(ctx, groupID)
	return nil
}

func (s *DynamoMembershipStore) decrementMembers(ctx context.Context, groupID string) {
	groupKey := map[string]types.AttributeValue{
		"groupId": &types.AttributeValueMemberS{Value: groupID},
	}
	err := s.Dynamo.UpdateItemWithCondition(ctx, models.GroupsTable,
		"SET currentMembers = currentMembers - :one",
		"currentMembers > :zero",
		groupKey,
		map[string]types.AttributeValue{
			":one":  &types.AttributeValueMemberN{Value: "1"},
			":zero": &types.AttributeValueMemberN{Value: "0"},
		},
		nil,
	)
	if err != nil && !errors.Is(err, ErrConditionalCheckFailed) {
		log.Printf("Failed to release member slot for group %s: %v", groupID, err)
	}
}

// ListMembers returns all memberships of a group
func (s *DynamoMembershipStore) ListMembers(ctx context.Context, groupID string) ([]models.Membership, error) {
	keyCondition := "groupId = :groupId"
	expressionValues := map[string]types.AttributeValue{
		":groupId": &types.AttributeValueMemberS{Value: groupID},
	}

	items, err := s.Dynamo.QueryItems(ctx, models.GroupMembersTable, keyCondition, expressionValues, nil, 0)
	if err != nil {
		return nil, err
	}

	var members []models.Membership
	if err := attributevalue.UnmarshalListOfMaps(items, &members); err != nil {
		return nil, fmt.Errorf("failed to unmarshal memberships: %w", err)
	}
	return members, nil
}

// MembershipsForUser returns the memberships a user currently holds
func (s *DynamoMembershipStore) MembershipsForUser(ctx context.Context, userID string) ([]models.Membership, error) {
	keyCondition := "userId = :userId"
	expressionValues := map[string]types.AttributeValue{
		":userId": &types.AttributeValueMemberS{Value: userID},
	}

	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.GroupMembersTable, models.MembersByUserIndex, keyCondition, expressionValues, nil, 0)
	if err != nil {
		return nil, err
	}

	var members []models.Membership
	if err := attributevalue.UnmarshalListOfMaps(items, &members); err != nil {
		return nil, fmt.Errorf("failed to unmarshal memberships: %w", err)
	}
	return members, nil
}

// PutVote appends a ballot; the sort key carries the cycle so a second
// ballot from the same member in the same cycle is rejected by the store
func (s *DynamoMembershipStore) PutVote(ctx context.Context, vote models.Vote) error {
	err := s.Dynamo.PutItemWithCondition(ctx, models.GroupVotesTable, vote,
		"attribute_not_exists(voteKey)", nil, nil)
	if errors.Is(err, ErrConditionalCheckFailed) {
		return ErrDuplicateVote
	}
	return err
}

// ListVotes returns all ballots of a group's voting cycle
func (s *DynamoMembershipStore) ListVotes(ctx context.Context, groupID string, cycle int) ([]models.Vote, error) {
	keyCondition := "groupId = :groupId AND begins_with(voteKey, :cyclePrefix)"
	expressionValues := map[string]types.AttributeValue{
		":groupId":     &types.AttributeValueMemberS{Value: groupID},
		":cyclePrefix": &types.AttributeValueMemberS{Value: fmt.Sprintf("CYCLE#%03d#", cycle)},
	}

	items, err := s.Dynamo.QueryItems(ctx, models.GroupVotesTable, keyCondition, expressionValues, nil, 0)
	if err != nil {
		return nil, err
	}

	var votes []models.Vote
	if err := attributevalue.UnmarshalListOfMaps(items, &votes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal votes: %w", err)
	}
	return votes, nil
}

// PutExitRequest creates an exit window unless an unprocessed one already
// exists for the (user, group) pair; re-granting is a silent no-op
func (s *DynamoMembershipStore) PutExitRequest(ctx context.Context, request models.ExitRequest) error {
	err := s.Dynamo.PutItemWithCondition(ctx, models.UserExitRequestsTable, request,
		"attribute_not_exists(userId) OR processed = :true",
		map[string]types.AttributeValue{
			":true": &types.AttributeValueMemberBOOL{Value: true},
		},
		nil,
	)
	if errors.Is(err, ErrConditionalCheckFailed) {
		return nil
	}
	return err
}

// GetExitRequest returns the exit request for a (user, group) pair
func (s *DynamoMembershipStore) GetExitRequest(ctx context.Context, userID, groupID string) (*models.ExitRequest, error) {
	key := map[string]types.AttributeValue{
		"userId":  &types.AttributeValueMemberS{Value: userID},
		"groupId": &types.AttributeValueMemberS{Value: groupID},
	}

	item, err := s.Dynamo.GetItem(ctx, models.UserExitRequestsTable, key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("exit request for %s/%s: %w", userID, groupID, ErrNotFound)
	}

	var request models.ExitRequest
	if err := attributevalue.UnmarshalMap(item, &request); err != nil {
		return nil, fmt.Errorf("failed to unmarshal exit request: %w", err)
	}
	return &request, nil
}

// MarkExitProcessed consumes an unprocessed exit request atomically
func (s *DynamoMembershipStore) MarkExitProcessed(ctx context.Context, userID, groupID string) error {
	key := map[string]types.AttributeValue{
		"userId":  &types.AttributeValueMemberS{Value: userID},
		"groupId": &types.AttributeValueMemberS{Value: groupID},
	}

	err := s.Dynamo.UpdateItemWithCondition(ctx, models.UserExitRequestsTable,
		"SET processed = :true",
		"attribute_exists(userId) AND processed = :false",
		key,
		map[string]types.AttributeValue{
			":true":  &types.AttributeValueMemberBOOL{Value: true},
			":false": &types.AttributeValueMemberBOOL{Value: false},
		},
		nil,
	)
	if errors.Is(err, ErrConditionalCheckFailed) {
		return ErrNoOpportunity
	}
	return err
}

func timeAttr(t time.Time) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: t.UTC().Format(time.RFC3339Nano)}
}
