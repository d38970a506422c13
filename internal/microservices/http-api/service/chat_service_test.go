package service_test

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"testing"

	"jobchat/internal/microservices/http-api/models"
	"jobchat/internal/microservices/http-api/repository"
	"jobchat/internal/microservices/http-api/service"
	"jobchat/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

const (
	ownerID int64 = 1001
	crewID  int64 = 1002
)

var (
	owner = models.OwnerIdentity(ownerID)
	crew  = models.CrewIdentity(crewID)
)

type ChatServiceSuite struct {
	suite.Suite
	db    *gorm.DB
	rooms repository.ChatRoomRepository
	svc   service.ChatService
	ctx   context.Context
}

func (s *ChatServiceSuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	s.rooms = repository.NewChatRoomRepository(s.db)
	s.svc = service.NewChatService(
		s.rooms,
		repository.NewChatMessageRepository(s.db),
		repository.NewMessageReadRepository(s.db),
		repository.NewJobRepository(s.db),
		0,
		slog.Default(),
	)
	s.ctx = context.Background()
}

func (s *ChatServiceSuite) countRows(model any) int64 {
	var n int64
	s.Require().NoError(s.db.Model(model).Count(&n).Error)
	return n
}

// openRoom seeds an assigned job and returns its room.
func (s *ChatServiceSuite) openRoom() (*models.Job, *models.ChatRoom) {
	job := testutil.SeedJob(s.T(), s.db, ownerID, crewID)
	room, err := s.svc.GetOrCreateRoomForJob(s.ctx, job)
	s.Require().NoError(err)
	return job, room
}

func (s *ChatServiceSuite) TestGetOrCreate_UnassignedJobIsUnavailable() {
	job := testutil.SeedJob(s.T(), s.db, ownerID, 0)

	room, err := s.svc.GetOrCreateRoomForJob(s.ctx, job)
	s.ErrorIs(err, service.ErrChatUnavailable)
	s.Nil(room)
	s.Zero(s.countRows(&models.ChatRoom{}))
	s.Zero(s.countRows(&models.ChatParticipant{}))
}

func (s *ChatServiceSuite) TestGetOrCreate_Idempotent() {
	job, first := s.openRoom()

	second, err := s.svc.GetOrCreateRoomForJob(s.ctx, job)
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)
	s.EqualValues(1, s.countRows(&models.ChatRoom{}))
	s.EqualValues(2, s.countRows(&models.ChatParticipant{}))
}

func (s *ChatServiceSuite) TestGetOrCreate_ConcurrentFirstAccess() {
	job := testutil.SeedJob(s.T(), s.db, ownerID, crewID)

	const callers = 10
	ids := make([]int64, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			room, err := s.svc.GetOrCreateRoomForJob(s.ctx, job)
			errs[i] = err
			if room != nil {
				ids[i] = room.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		s.Require().NoError(errs[i])
		s.Equal(ids[0], ids[i])
	}
	s.EqualValues(1, s.countRows(&models.ChatRoom{}))
	s.EqualValues(2, s.countRows(&models.ChatParticipant{}))
}

func (s *ChatServiceSuite) TestGetRoomForJob() {
	job, room := s.openRoom()
	unassigned := testutil.SeedJob(s.T(), s.db, ownerID, 0)

	got, err := s.svc.GetRoomForJob(s.ctx, job.ID, crew)
	s.Require().NoError(err)
	s.Equal(room.ID, got.ID)

	_, err = s.svc.GetRoomForJob(s.ctx, job.ID, models.OwnerIdentity(ownerID+1))
	s.ErrorIs(err, service.ErrForbidden)

	_, err = s.svc.GetRoomForJob(s.ctx, job.ID+1000, owner)
	s.ErrorIs(err, service.ErrJobNotFound)

	_, err = s.svc.GetRoomForJob(s.ctx, unassigned.ID, owner)
	s.ErrorIs(err, service.ErrChatUnavailable)

	_, err = s.svc.GetRoomForJob(s.ctx, job.ID, models.Identity{})
	s.ErrorIs(err, service.ErrUnauthorized)
}

func (s *ChatServiceSuite) TestReassignedCrewIsNotAdmitted() {
	job, room := s.openRoom()

	newCrew := crewID + 1
	s.Require().NoError(s.db.Model(job).Update("assigned_crew_id", newCrew).Error)

	_, err := s.svc.GetRoomForJob(s.ctx, job.ID, models.CrewIdentity(newCrew))
	s.ErrorIs(err, service.ErrForbidden)

	got, err := s.svc.GetRoomForJob(s.ctx, job.ID, crew)
	s.Require().NoError(err)
	s.Equal(room.ID, got.ID)
}

func (s *ChatServiceSuite) TestApplyJobClosed() {
	job, room := s.openRoom()
	_, err := s.svc.AppendMessage(s.ctx, room.ID, owner, "before close")
	s.Require().NoError(err)

	s.Require().NoError(s.svc.ApplyJobClosed(s.ctx, job.ID))

	_, err = s.svc.AppendMessage(s.ctx, room.ID, owner, "after close")
	s.ErrorIs(err, service.ErrRoomReadOnly)
	_, err = s.svc.AppendMessage(s.ctx, room.ID, crew, "after close")
	s.ErrorIs(err, service.ErrRoomReadOnly)

	// read-only wins over the gate, whoever is sending
	for _, stranger := range []models.Identity{models.CrewIdentity(9999), models.OwnerIdentity(crewID)} {
		_, err = s.svc.AppendMessage(s.ctx, room.ID, stranger, "let me in")
		s.ErrorIs(err, service.ErrRoomReadOnly, stranger.String())
	}

	// history stays readable
	page, err := s.svc.ListMessages(s.ctx, room.ID, crew, "", 0)
	s.Require().NoError(err)
	s.Len(page.Messages, 1)

	// the latch never resets
	s.Require().NoError(s.svc.ApplyJobClosed(s.ctx, job.ID))
	reloaded, err := s.rooms.GetByID(s.ctx, room.ID)
	s.Require().NoError(err)
	s.True(reloaded.IsReadOnly)
}

func (s *ChatServiceSuite) TestApplyJobClosed_WithoutRoom() {
	job := testutil.SeedJob(s.T(), s.db, ownerID, crewID)
	s.NoError(s.svc.ApplyJobClosed(s.ctx, job.ID))
	s.Zero(s.countRows(&models.ChatRoom{}))
}

func (s *ChatServiceSuite) TestIsParticipant() {
	_, room := s.openRoom()

	for _, id := range []models.Identity{owner, crew} {
		ok, err := s.svc.IsParticipant(s.ctx, room.ID, id)
		s.NoError(err)
		s.True(ok, id.String())
	}
	for _, id := range []models.Identity{models.OwnerIdentity(crewID), models.CrewIdentity(ownerID), models.CrewIdentity(5)} {
		ok, err := s.svc.IsParticipant(s.ctx, room.ID, id)
		s.NoError(err)
		s.False(ok, id.String())
	}

	_, err := s.svc.IsParticipant(s.ctx, room.ID, models.Identity{})
	s.ErrorIs(err, service.ErrUnauthorized)
}

func (s *ChatServiceSuite) TestGate_MembersOfAnotherRoom() {
	_, roomA := s.openRoom()

	ownerB, crewB := models.OwnerIdentity(2001), models.CrewIdentity(2002)
	jobB := testutil.SeedJob(s.T(), s.db, ownerB.ID(), crewB.ID())
	roomB, err := s.svc.GetOrCreateRoomForJob(s.ctx, jobB)
	s.Require().NoError(err)
	s.Require().NotEqual(roomA.ID, roomB.ID)

	for _, id := range []models.Identity{ownerB, crewB} {
		ok, err := s.svc.IsParticipant(s.ctx, roomB.ID, id)
		s.NoError(err)
		s.True(ok, id.String())

		ok, err = s.svc.IsParticipant(s.ctx, roomA.ID, id)
		s.NoError(err)
		s.False(ok, id.String())

		_, err = s.svc.ListMessages(s.ctx, roomA.ID, id, "", 0)
		s.ErrorIs(err, service.ErrForbidden)
		_, err = s.svc.AppendMessage(s.ctx, roomA.ID, id, "wrong room")
		s.ErrorIs(err, service.ErrForbidden)
	}
}

func (s *ChatServiceSuite) TestAppendMessage_Validation() {
	_, room := s.openRoom()

	msg, err := s.svc.AppendMessage(s.ctx, room.ID, owner, "  hi  ")
	s.Require().NoError(err)
	s.Equal("hi", msg.Content)
	s.NotZero(msg.ID)
	s.False(msg.CreatedAt.IsZero())
	s.Equal(models.ParticipantTaskOwner, msg.SenderType)

	for _, content := range []string{"", "   ", "\n\t "} {
		_, err = s.svc.AppendMessage(s.ctx, room.ID, owner, content)
		s.ErrorIs(err, service.ErrInvalidContent, "%q", content)
	}

	atLimit := strings.Repeat("é", service.MaxMessageLength)
	_, err = s.svc.AppendMessage(s.ctx, room.ID, crew, atLimit)
	s.NoError(err)

	_, err = s.svc.AppendMessage(s.ctx, room.ID, crew, atLimit+"x")
	s.ErrorIs(err, service.ErrInvalidContent)

	_, err = s.svc.AppendMessage(s.ctx, room.ID, models.CrewIdentity(crewID+5), "let me in")
	s.ErrorIs(err, service.ErrForbidden)

	_, err = s.svc.AppendMessage(s.ctx, room.ID+99, owner, "hello?")
	s.ErrorIs(err, service.ErrRoomNotFound)
}

func (s *ChatServiceSuite) TestListMessages_Gate() {
	_, room := s.openRoom()

	_, err := s.svc.ListMessages(s.ctx, room.ID, models.OwnerIdentity(ownerID+1), "", 10)
	s.ErrorIs(err, service.ErrForbidden)

	_, err = s.svc.ListMessages(s.ctx, room.ID+99, owner, "", 10)
	s.ErrorIs(err, service.ErrForbidden)
}

func (s *ChatServiceSuite) TestListMessages_WalksAllPages() {
	_, room := s.openRoom()

	const total = 23
	for i := 0; i < total; i++ {
		sender := owner
		if i%2 == 1 {
			sender = crew
		}
		_, err := s.svc.AppendMessage(s.ctx, room.ID, sender, "msg "+strconv.Itoa(i))
		s.Require().NoError(err)
	}

	seen := map[int64]bool{}
	var last int64
	cursor := ""
	pages := 0
	for {
		page, err := s.svc.ListMessages(s.ctx, room.ID, owner, cursor, 5)
		s.Require().NoError(err)
		pages++
		for _, m := range page.Messages {
			s.False(seen[m.ID], "duplicate message %d", m.ID)
			if last != 0 {
				s.Less(m.ID, last)
			}
			seen[m.ID] = true
			last = m.ID
		}
		if !page.HasMore {
			s.Empty(page.NextCursor)
			break
		}
		s.Len(page.Messages, 5)
		s.Equal(strconv.FormatInt(page.Messages[len(page.Messages)-1].ID, 10), page.NextCursor)
		cursor = page.NextCursor
	}
	s.Len(seen, total)
	s.Equal(5, pages)
}

func (s *ChatServiceSuite) TestListMessages_LimitAndCursorNormalisation() {
	_, room := s.openRoom()
	for i := 0; i < 3; i++ {
		_, err := s.svc.AppendMessage(s.ctx, room.ID, owner, "x")
		s.Require().NoError(err)
	}

	page, err := s.svc.ListMessages(s.ctx, room.ID, owner, "not-a-number", 0)
	s.Require().NoError(err)
	s.Len(page.Messages, 3)
	s.False(page.HasMore)

	page, err = s.svc.ListMessages(s.ctx, room.ID, owner, "-4", -10)
	s.Require().NoError(err)
	s.Len(page.Messages, 1)
	s.True(page.HasMore)

	page, err = s.svc.ListMessages(s.ctx, room.ID, owner, "", 1000)
	s.Require().NoError(err)
	s.Len(page.Messages, 3)
}

// Owner 1001 says "Hi", crew 1002 replies "Hello"; each side reads the
// history one message at a time.
func (s *ChatServiceSuite) TestConversationPagedOneByOne() {
	_, room := s.openRoom()

	hi, err := s.svc.AppendMessage(s.ctx, room.ID, owner, "Hi")
	s.Require().NoError(err)
	hello, err := s.svc.AppendMessage(s.ctx, room.ID, crew, "Hello")
	s.Require().NoError(err)

	for _, reader := range []models.Identity{owner, crew} {
		first, err := s.svc.ListMessages(s.ctx, room.ID, reader, "", 1)
		s.Require().NoError(err)
		s.Require().Len(first.Messages, 1)
		s.Equal(hello.ID, first.Messages[0].ID)
		s.Equal("Hello", first.Messages[0].Content)
		s.True(first.HasMore)
		s.Equal(strconv.FormatInt(hello.ID, 10), first.NextCursor)

		second, err := s.svc.ListMessages(s.ctx, room.ID, reader, first.NextCursor, 1)
		s.Require().NoError(err)
		s.Require().Len(second.Messages, 1)
		s.Equal(hi.ID, second.Messages[0].ID)
		s.Equal("Hi", second.Messages[0].Content)
		s.False(second.HasMore)
		s.Empty(second.NextCursor)
	}
}

func (s *ChatServiceSuite) TestMarkReadAndUnreadCount() {
	_, room := s.openRoom()

	m1, err := s.svc.AppendMessage(s.ctx, room.ID, crew, "one")
	s.Require().NoError(err)
	_, err = s.svc.AppendMessage(s.ctx, room.ID, crew, "two")
	s.Require().NoError(err)
	_, err = s.svc.AppendMessage(s.ctx, room.ID, owner, "three")
	s.Require().NoError(err)

	n, err := s.svc.UnreadCount(s.ctx, room.ID, owner)
	s.Require().NoError(err)
	s.EqualValues(2, n)

	s.Require().NoError(s.svc.MarkRead(s.ctx, room.ID, m1.ID, owner))
	s.Require().NoError(s.svc.MarkRead(s.ctx, room.ID, m1.ID, owner))
	s.EqualValues(1, s.countRows(&models.MessageRead{}))

	n, err = s.svc.UnreadCount(s.ctx, room.ID, owner)
	s.Require().NoError(err)
	s.EqualValues(1, n)

	n, err = s.svc.UnreadCount(s.ctx, room.ID, crew)
	s.Require().NoError(err)
	s.EqualValues(1, n)

	s.ErrorIs(s.svc.MarkRead(s.ctx, room.ID, m1.ID, models.CrewIdentity(77)), service.ErrForbidden)
	s.ErrorIs(s.svc.MarkRead(s.ctx, room.ID, m1.ID+1000, owner), service.ErrMessageNotFound)
	_, err = s.svc.UnreadCount(s.ctx, room.ID, models.OwnerIdentity(77))
	s.ErrorIs(err, service.ErrForbidden)
}

func (s *ChatServiceSuite) TestMarkRead_MessageFromAnotherRoom() {
	_, room := s.openRoom()
	otherJob := testutil.SeedJob(s.T(), s.db, ownerID, crewID+10)
	otherRoom, err := s.svc.GetOrCreateRoomForJob(s.ctx, otherJob)
	s.Require().NoError(err)

	foreign, err := s.svc.AppendMessage(s.ctx, otherRoom.ID, owner, "elsewhere")
	s.Require().NoError(err)

	s.ErrorIs(s.svc.MarkRead(s.ctx, room.ID, foreign.ID, owner), service.ErrMessageNotFound)
}

func TestChatServiceSuite(t *testing.T) {
	suite.Run(t, new(ChatServiceSuite))
}

// racingRooms loses the creation race exactly once: the first lookup misses,
// the insert conflicts, and the re-fetch finds the winner's room.
type racingRooms struct {
	repository.ChatRoomRepository
	winner  *models.ChatRoom
	lookups int
}

func (r *racingRooms) GetByJobID(ctx context.Context, jobID int64) (*models.ChatRoom, error) {
	r.lookups++
	if r.lookups == 1 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.winner, nil
}

func (r *racingRooms) CreateForJob(ctx context.Context, jobID int64, owner, crew models.Identity) (*models.ChatRoom, error) {
	return nil, repository.ErrRoomExists
}

func TestGetOrCreate_RaceLoserReturnsWinnersRoom(t *testing.T) {
	winner := &models.ChatRoom{ID: 77, JobID: 5}
	rooms := &racingRooms{winner: winner}
	svc := service.NewChatService(rooms, nil, nil, nil, 0, nil)

	crewID := int64(2)
	room, err := svc.GetOrCreateRoomForJob(context.Background(), &models.Job{ID: 5, OwnerID: 1, AssignedCrewID: &crewID})
	require.NoError(t, err)
	assert.Same(t, winner, room)
	assert.Equal(t, 2, rooms.lookups)
}

type failingRooms struct {
	repository.ChatRoomRepository
}

func (failingRooms) GetByJobID(context.Context, int64) (*models.ChatRoom, error) {
	return nil, gorm.ErrRecordNotFound
}

func (failingRooms) CreateForJob(context.Context, int64, models.Identity, models.Identity) (*models.ChatRoom, error) {
	return nil, errors.New("connection reset")
}

func TestGetOrCreate_InfraErrorSurfaces(t *testing.T) {
	svc := service.NewChatService(failingRooms{}, nil, nil, nil, 0, nil)

	crewID := int64(2)
	_, err := svc.GetOrCreateRoomForJob(context.Background(), &models.Job{ID: 5, OwnerID: 1, AssignedCrewID: &crewID})
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrRoomExists)
	assert.Contains(t, err.Error(), "connection reset")
}
