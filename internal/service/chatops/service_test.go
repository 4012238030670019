package chatops

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"duo_chat_server/internal/dao/mysql/repository"
	"duo_chat_server/internal/dto/request"
	"duo_chat_server/internal/infrastructure/push"
	"duo_chat_server/internal/model"
	"duo_chat_server/internal/service/presence"
	"duo_chat_server/pkg/errorx"
	"duo_chat_server/pkg/util/snowflake"
)

func init() {
	snowflake.Init(1)
}

// ---- 内存版仓储，语义对齐 MySQL 实现 ----

type fakeConversationRepo struct {
	mu    sync.Mutex
	convs []*model.Conversation
	next  int64
}

func (f *fakeConversationRepo) FindOrCreate(requesterID, otherID int64) (*model.Conversation, bool, error) {
	if requesterID == otherID {
		return nil, false, errorx.New(errorx.CodeInvalidParam, "不能与自己创建会话")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	lo, hi := model.NormalizePair(requesterID, otherID)
	for _, conv := range f.convs {
		if conv.UserLo == lo && conv.UserHi == hi {
			conv.DeletedBy = conv.DeletedBy.Remove(requesterID)
			copied := *conv
			return &copied, false, nil
		}
	}
	f.next++
	conv := &model.Conversation{Uuid: f.next, UserLo: lo, UserHi: hi, DeletedBy: model.IDSet{}}
	f.convs = append(f.convs, conv)
	copied := *conv
	return &copied, true, nil
}

func (f *fakeConversationRepo) FindByUuid(convID int64) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, conv := range f.convs {
		if conv.Uuid == convID {
			copied := *conv
			return &copied, nil
		}
	}
	return nil, errorx.Newf(errorx.CodeNotFound, "会话 %d 不存在", convID)
}

func (f *fakeConversationRepo) DeleteFor(convID, requesterID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, conv := range f.convs {
		if conv.Uuid == convID {
			if !conv.HasParticipant(requesterID) {
				return errorx.Newf(errorx.CodeNotFound, "会话 %d 不存在", convID)
			}
			conv.DeletedBy = conv.DeletedBy.Add(requesterID)
			return nil
		}
	}
	return errorx.Newf(errorx.CodeNotFound, "会话 %d 不存在", convID)
}

func (f *fakeConversationRepo) ClearDeletedBy(convID, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, conv := range f.convs {
		if conv.Uuid == convID {
			conv.DeletedBy = conv.DeletedBy.Remove(userID)
			return nil
		}
	}
	return nil
}

type fakeMessageRepo struct {
	mu   sync.Mutex
	msgs []*model.Message
}

func (f *fakeMessageRepo) Create(message *model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *message
	f.msgs = append(f.msgs, &copied)
	return nil
}

func (f *fakeMessageRepo) FindByUuid(msgID int64) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, msg := range f.msgs {
		if msg.Uuid == msgID {
			copied := *msg
			return &copied, nil
		}
	}
	return nil, errorx.Newf(errorx.CodeNotFound, "消息 %d 不存在", msgID)
}

func (f *fakeMessageRepo) ListPage(convID, viewerID int64, page, limit int) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var visible []model.Message
	for _, msg := range f.msgs {
		if msg.ConversationID == convID && msg.VisibleTo(viewerID) {
			visible = append(visible, *msg)
		}
	}
	sort.Slice(visible, func(i, j int) bool {
		if !visible[i].SentAt.Equal(visible[j].SentAt) {
			return visible[i].SentAt.After(visible[j].SentAt)
		}
		return visible[i].Uuid > visible[j].Uuid
	})
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(visible) {
		return nil, nil
	}
	end := start + limit
	if end > len(visible) {
		end = len(visible)
	}
	return visible[start:end], nil
}

func (f *fakeMessageRepo) UpdateBody(msgID, convID, senderID int64, body string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, msg := range f.msgs {
		if msg.Uuid == msgID && msg.ConversationID == convID &&
			msg.SenderID == senderID && !msg.IsDeletedForEveryone {
			msg.Body = body
			msg.IsEdited = true
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeMessageRepo) LastVisibleUuid(convID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var last *model.Message
	for _, msg := range f.msgs {
		if msg.ConversationID != convID || msg.IsDeletedForEveryone {
			continue
		}
		if last == nil || msg.SentAt.After(last.SentAt) ||
			(msg.SentAt.Equal(last.SentAt) && msg.Uuid > last.Uuid) {
			last = msg
		}
	}
	if last == nil {
		return 0, nil
	}
	return last.Uuid, nil
}

func (f *fakeMessageRepo) AddDeletedBy(msgID, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, msg := range f.msgs {
		if msg.Uuid == msgID {
			msg.DeletedBy = msg.DeletedBy.Add(userID)
			return nil
		}
	}
	return errorx.Newf(errorx.CodeNotFound, "消息 %d 不存在", msgID)
}

func (f *fakeMessageRepo) MarkDeletedForEveryone(msgID, convID, senderID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, msg := range f.msgs {
		if msg.Uuid == msgID && msg.ConversationID == convID && msg.SenderID == senderID {
			if msg.IsDeletedForEveryone {
				return 0, nil // 已是目标状态，0 行变更
			}
			msg.IsDeletedForEveryone = true
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeMessageRepo) MarkConversationRead(convID, readerID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, msg := range f.msgs {
		if msg.ConversationID == convID && msg.ReceiverID == readerID {
			msg.IsRead = true
		}
	}
	return nil
}

type fakeSessionRepo struct {
	mu   sync.Mutex
	rows []*model.Session
}

func (f *fakeSessionRepo) Upsert(s *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.IsLogin = true
	s.IsActive = true
	for _, row := range f.rows {
		if row.UserID == s.UserID && row.DeviceType == s.DeviceType && row.DeviceToken == s.DeviceToken {
			row.AuthToken = s.AuthToken
			row.IsLogin = true
			row.IsActive = true
			return nil
		}
	}
	copied := *s
	f.rows = append(f.rows, &copied)
	return nil
}

func (f *fakeSessionRepo) AttachSocket(userID int64, tokenDigest, socketID string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.UserID == userID && row.AuthToken == tokenDigest {
			row.SocketID = socketID
			row.IsActive = true
			copied := *row
			return &copied, nil
		}
	}
	return nil, errorx.New(errorx.CodeNotFound, "session not found")
}

func (f *fakeSessionRepo) DetachBySocket(socketID string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.SocketID == socketID && row.SocketID != "" {
			prior := *row
			row.SocketID = ""
			row.ViewingConversationID = 0
			row.IsActive = false
			return &prior, nil
		}
	}
	return nil, errorx.New(errorx.CodeNotFound, "session not found")
}

func (f *fakeSessionRepo) ListActive(userID int64) ([]model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var active []model.Session
	for _, row := range f.rows {
		if row.UserID == userID && row.IsActive {
			active = append(active, *row)
		}
	}
	return active, nil
}

func (f *fakeSessionRepo) SetViewing(userID int64, socketID string, convID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.UserID == userID && row.SocketID == socketID {
			row.ViewingConversationID = convID
			return nil
		}
	}
	return errorx.New(errorx.CodeNotFound, "session not found")
}

func (f *fakeSessionRepo) DeviceTokens(userID int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var tokens []string
	for _, row := range f.rows {
		if row.UserID == userID && row.IsLogin && row.DeviceToken != "" {
			tokens = append(tokens, row.DeviceToken)
		}
	}
	return tokens, nil
}

func (f *fakeSessionRepo) DeleteByUserDevice(userID int64, deviceType, deviceToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.rows[:0]
	for _, row := range f.rows {
		if !(row.UserID == userID && row.DeviceType == deviceType && row.DeviceToken == deviceToken) {
			kept = append(kept, row)
		}
	}
	f.rows = kept
	return nil
}

// fakeCache 内存缓存，SubmitTask 同步执行，测试结果可确定
type fakeCache struct {
	mu    sync.Mutex
	store map[string]string
	gets  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string]string)}
}

func (f *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store[key] = value
	return nil
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	return f.store[key], nil
}

func (f *fakeCache) GetOrError(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.store[key]
	if !ok {
		return "", errorx.Newf(errorx.CodeNotFound, "key %s not found", key)
	}
	return value, nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.store, key)
	return nil
}

func (f *fakeCache) DeleteByPattern(ctx context.Context, pattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range f.store {
		if strings.HasPrefix(key, prefix) {
			delete(f.store, key)
		}
	}
	return nil
}

func (f *fakeCache) SubmitTask(action func()) {
	action()
}

// fakeNotifier 记录投递的推送
type fakeNotifier struct {
	mu   sync.Mutex
	sent []*push.Notification
}

func (f *fakeNotifier) Notify(ctx context.Context, n *push.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// ---- 测试装配 ----

type fixture struct {
	svc      *Service
	convs    *fakeConversationRepo
	msgs     *fakeMessageRepo
	sessions *fakeSessionRepo
	cache    *fakeCache
	notifier *fakeNotifier
}

func newFixture() *fixture {
	convs := &fakeConversationRepo{}
	msgs := &fakeMessageRepo{}
	sessions := &fakeSessionRepo{}
	cache := newFakeCache()
	notifier := &fakeNotifier{}
	repos := &repository.Repositories{
		Conversation: convs,
		Message:      msgs,
		Session:      sessions,
	}
	svc := NewService(repos, presence.NewCoordinator(sessions), cache, notifier, "https://cdn.example.com")
	return &fixture{svc: svc, convs: convs, msgs: msgs, sessions: sessions, cache: cache, notifier: notifier}
}

func mustCreateConversation(t *testing.T, fx *fixture, userA, userB int64) int64 {
	t.Helper()
	conv, err := fx.svc.CreateConversation(userA, &request.CreateConversationRequest{OtherUserID: userB})
	if err != nil {
		t.Fatalf("CreateConversation returned error: %v", err)
	}
	return conv.ConversationID
}

func mustSend(t *testing.T, fx *fixture, convID, senderID, receiverID int64, body string) int64 {
	t.Helper()
	resp, err := fx.svc.SendMessage(senderID, &request.SendMessageRequest{
		ConversationID: convID,
		ReceiverID:     receiverID,
		Kind:           model.MessageKindText,
		Body:           body,
	})
	if err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	return resp.MessageID
}

func TestCreateConversationRejectsSelf(t *testing.T) {
	fx := newFixture()
	_, err := fx.svc.CreateConversation(1, &request.CreateConversationRequest{OtherUserID: 1})
	if errorx.GetCode(err) != errorx.CodeInvalidParam {
		t.Errorf("self conversation: code = %d, want %d", errorx.GetCode(err), errorx.CodeInvalidParam)
	}
}

func TestCreateConversationIsIdempotentForPair(t *testing.T) {
	fx := newFixture()
	first := mustCreateConversation(t, fx, 1, 2)
	// 反方向创建命中同一会话
	conv, err := fx.svc.CreateConversation(2, &request.CreateConversationRequest{OtherUserID: 1})
	if err != nil {
		t.Fatalf("CreateConversation returned error: %v", err)
	}
	if conv.ConversationID != first {
		t.Errorf("reverse pair created new conversation %d, want %d", conv.ConversationID, first)
	}
	if conv.IsNew {
		t.Error("existing pair reported IsNew=true")
	}
}

func TestSendMessageTextRequiresBody(t *testing.T) {
	fx := newFixture()
	convID := mustCreateConversation(t, fx, 1, 2)
	_, err := fx.svc.SendMessage(1, &request.SendMessageRequest{
		ConversationID: convID,
		ReceiverID:     2,
		Kind:           model.MessageKindText,
		Body:           "   ",
	})
	if errorx.GetCode(err) != errorx.CodeInvalidParam {
		t.Errorf("blank body: code = %d, want %d", errorx.GetCode(err), errorx.CodeInvalidParam)
	}
}

func TestSendMessageNonParticipantGetsNotFound(t *testing.T) {
	fx := newFixture()
	convID := mustCreateConversation(t, fx, 1, 2)
	_, err := fx.svc.SendMessage(3, &request.SendMessageRequest{
		ConversationID: convID,
		ReceiverID:     2,
		Kind:           model.MessageKindText,
		Body:           "hello",
	})
	if !errorx.IsNotFound(err) {
		t.Errorf("non-participant send: err = %v, want NotFound", err)
	}
}

func TestSendMessageReceiverMustBePeer(t *testing.T) {
	fx := newFixture()
	convID := mustCreateConversation(t, fx, 1, 2)
	_, err := fx.svc.SendMessage(1, &request.SendMessageRequest{
		ConversationID: convID,
		ReceiverID:     3,
		Kind:           model.MessageKindText,
		Body:           "hello",
	})
	if errorx.GetCode(err) != errorx.CodeInvalidParam {
		t.Errorf("wrong receiver: code = %d, want %d", errorx.GetCode(err), errorx.CodeInvalidParam)
	}
}

func TestSendMessageRestoresDeletedConversationForReceiver(t *testing.T) {
	fx := newFixture()
	convID := mustCreateConversation(t, fx, 1, 2)
	mustSend(t, fx, convID, 1, 2, "hi")
	if _, err := fx.svc.DeleteConversation(2, &request.DeleteConversationRequest{ConversationID: convID}); err != nil {
		t.Fatalf("DeleteConversation returned error: %v", err)
	}

	mustSend(t, fx, convID, 1, 2, "are you there")

	conv, err := fx.convs.FindByUuid(convID)
	if err != nil {
		t.Fatalf("FindByUuid returned error: %v", err)
	}
	if conv.DeletedBy.Contains(2) {
		t.Error("new message should clear receiver's deletion marker")
	}
}

func TestPushSuppressedWhileReceiverIsViewing(t *testing.T) {
	fx := newFixture()
	convID := mustCreateConversation(t, fx, 1, 2)
	fx.sessions.rows = append(fx.sessions.rows, &model.Session{
		UserID: 2, SocketID: "sock-2", DeviceToken: "tok-2",
		ViewingConversationID: convID, IsLogin: true, IsActive: true,
	})

	mustSend(t, fx, convID, 1, 2, "hello")
	if fx.notifier.count() != 0 {
		t.Errorf("receiver viewing: %d pushes sent, want 0", fx.notifier.count())
	}
}

func TestPushDeliveredWhenReceiverNotViewing(t *testing.T) {
	fx := newFixture()
	convID := mustCreateConversation(t, fx, 1, 2)
	fx.sessions.rows = append(fx.sessions.rows, &model.Session{
		UserID: 2, DeviceToken: "tok-2", IsLogin: true,
	})

	mustSend(t, fx, convID, 1, 2, "hello")
	if fx.notifier.count() != 1 {
		t.Fatalf("receiver not viewing: %d pushes sent, want 1", fx.notifier.count())
	}
	if fx.notifier.sent[0].UserID != 2 {
		t.Errorf("push UserID = %d, want 2", fx.notifier.sent[0].UserID)
	}
}

func TestEditMessageOnlySender(t *testing.T) {
	fx := newFixture()
	convID := mustCreateConversation(t, fx, 1, 2)
	msgID := mustSend(t, fx, convID, 1, 2, "original")

	_, err := fx.svc.EditMessage(2, &request.EditMessageRequest{
		MessageID: msgID, ConversationID: convID, Body: "hacked",
	})
	if !errorx.IsDenied(err) {
		t.Errorf("receiver edit: err = %v, want Denied", err)
	}
}

func TestEditMessageReportsIsLastMessage(t *testing.T) {
	fx := newFixture()
	convID := mustCreateConversation(t, fx, 1, 2)
	firstID := mustSend(t, fx, convID, 1, 2, "first")
	time.Sleep(2 * time.Millisecond) // sent_at 单调
	mustSend(t, fx, convID, 1, 2, "second")

	resp, err := fx.svc.EditMessage(1, &request.EditMessageRequest{
		MessageID: firstID, ConversationID: convID, Body: "first edited",
	})
	if err != nil {
		t.Fatalf("EditMessage returned error: %v", err)
	}
	if resp.IsLastMessage == nil || *resp.IsLastMessage {
		t.Error("edited non-last message, want is_last_message=false")
	}
	if !resp.IsEdited {
		t.Error("expected IsEdited=true after edit")
	}

	lastID := mustSend(t, fx, convID, 1, 2, "third")
	resp, err = fx.svc.EditMessage(1, &request.EditMessageRequest{
		MessageID: lastID, ConversationID: convID, Body: "third edited",
	})
	if err != nil {
		t.Fatalf("EditMessage returned error: %v", err)
	}
	if resp.IsLastMessage == nil || !*resp.IsLastMessage {
		t.Error("edited last message, want is_last_message=true")
	}
}

func TestEditMissingMessageGetsNotFound(t *testing.T) {
	fx := newFixture()
	convID := mustCreateConversation(t, fx, 1, 2)
	_, err := fx.svc.EditMessage(1, &request.EditMessageRequest{
		MessageID: 99999, ConversationID: convID, Body: "x",
	})
	if !errorx.IsNotFound(err) {
		t.Errorf("missing message edit: err = %v, want NotFound", err)
	}
}

func TestDeleteMessageHidesOnlyForRequester(t *testing.T) {
	fx := newFixture()
	convID := mustCreateConversation(t, fx, 1, 2)
	msgID := mustSend(t, fx, convID, 1, 2, "hello")

	if _, err := fx.svc.DeleteMessage(2, &request.DeleteMessageRequest{
		MessageID: msgID, ConversationID: convID,
	}); err != nil {
		t.Fatalf("DeleteMessage returned error: %v", err)
	}

	forReceiver, err := fx.svc.ListMessages(2, &request.ListMessagesRequest{ConversationID: convID})
	if err != nil {
		t.Fatalf("ListMessages returned error: %v", err)
	}
	if len(forReceiver) != 0 {
		t.Errorf("deleted-for-self message still visible to requester: %d messages", len(forReceiver))
	}

	forSender, err := fx.svc.ListMessages(1, &request.ListMessagesRequest{ConversationID: convID})
	if err != nil {
		t.Fatalf("ListMessages returned error: %v", err)
	}
	if len(forSender) != 1 {
		t.Errorf("sender should still see the message, got %d", len(forSender))
	}
}

func TestDeleteMessageForEveryoneOnlySender(t *testing.T) {
	fx := newFixture()
	convID := mustCreateConversation(t, fx, 1, 2)
	msgID := mustSend(t, fx, convID, 1, 2, "hello")

	_, err := fx.svc.DeleteMessageForEveryone(2, &request.DeleteMessageRequest{
		MessageID: msgID, ConversationID: convID,
	})
	if !errorx.IsDenied(err) {
		t.Errorf("receiver delete-for-everyone: err = %v, want Denied", err)
	}

	if _, err := fx.svc.DeleteMessageForEveryone(1, &request.DeleteMessageRequest{
		MessageID: msgID, ConversationID: convID,
	}); err != nil {
		t.Fatalf("sender delete-for-everyone returned error: %v", err)
	}

	// 双方都不可见
	for _, viewer := range []int64{1, 2} {
		list, err := fx.svc.ListMessages(viewer, &request.ListMessagesRequest{ConversationID: convID})
		if err != nil {
			t.Fatalf("ListMessages returned error: %v", err)
		}
		if len(list) != 0 {
			t.Errorf("viewer %d still sees %d messages after delete-for-everyone", viewer, len(list))
		}
	}

	// 重复撤回幂等成功
	if _, err := fx.svc.DeleteMessageForEveryone(1, &request.DeleteMessageRequest{
		MessageID: msgID, ConversationID: convID,
	}); err != nil {
		t.Errorf("repeated delete-for-everyone returned error: %v", err)
	}
}

func TestListMessagesNewestFirst(t *testing.T) {
	fx := newFixture()
	convID := mustCreateConversation(t, fx, 1, 2)
	mustSend(t, fx, convID, 1, 2, "one")
	time.Sleep(2 * time.Millisecond)
	mustSend(t, fx, convID, 2, 1, "two")
	time.Sleep(2 * time.Millisecond)
	mustSend(t, fx, convID, 1, 2, "three")

	list, err := fx.svc.ListMessages(1, &request.ListMessagesRequest{ConversationID: convID})
	if err != nil {
		t.Fatalf("ListMessages returned error: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d messages, want 3", len(list))
	}
	if list[0].Body != "three" || list[2].Body != "one" {
		t.Errorf("unexpected order: %s, %s, %s", list[0].Body, list[1].Body, list[2].Body)
	}
}

func TestListMessagesFirstPageIsCached(t *testing.T) {
	fx := newFixture()
	convID := mustCreateConversation(t, fx, 1, 2)
	mustSend(t, fx, convID, 1, 2, "hello")

	if _, err := fx.svc.ListMessages(1, &request.ListMessagesRequest{ConversationID: convID}); err != nil {
		t.Fatalf("ListMessages returned error: %v", err)
	}
	if _, ok := fx.cache.store[messagePageKey(convID, 1)]; !ok {
		t.Fatal("first page was not written to cache")
	}

	// 新消息落库后缓存被清除
	mustSend(t, fx, convID, 1, 2, "again")
	if _, ok := fx.cache.store[messagePageKey(convID, 1)]; ok {
		t.Error("cache not invalidated after new message")
	}
}

func TestReadMessagesMarksAllForReader(t *testing.T) {
	fx := newFixture()
	convID := mustCreateConversation(t, fx, 1, 2)
	mustSend(t, fx, convID, 1, 2, "one")
	mustSend(t, fx, convID, 1, 2, "two")

	if _, err := fx.svc.ReadMessages(2, &request.ReadMessagesRequest{ConversationID: convID}); err != nil {
		t.Fatalf("ReadMessages returned error: %v", err)
	}
	list, err := fx.svc.ListMessages(2, &request.ListMessagesRequest{ConversationID: convID})
	if err != nil {
		t.Fatalf("ListMessages returned error: %v", err)
	}
	for _, msg := range list {
		if !msg.IsRead {
			t.Errorf("message %d not marked read", msg.MessageID)
		}
	}
}

func TestSetViewingRequiresParticipant(t *testing.T) {
	fx := newFixture()
	convID := mustCreateConversation(t, fx, 1, 2)
	fx.sessions.rows = append(fx.sessions.rows, &model.Session{
		UserID: 3, SocketID: "sock-3", IsLogin: true, IsActive: true,
	})

	_, err := fx.svc.SetViewing(3, "sock-3", &request.SetViewingRequest{
		ConversationID: convID, Viewing: true,
	})
	if !errorx.IsNotFound(err) {
		t.Errorf("non-participant setViewing: err = %v, want NotFound", err)
	}
}

func TestSetViewingUpdatesSessionRow(t *testing.T) {
	fx := newFixture()
	convID := mustCreateConversation(t, fx, 1, 2)
	fx.sessions.rows = append(fx.sessions.rows, &model.Session{
		UserID: 1, SocketID: "sock-1", IsLogin: true, IsActive: true,
	})

	resp, err := fx.svc.SetViewing(1, "sock-1", &request.SetViewingRequest{
		ConversationID: convID, Viewing: true,
	})
	if err != nil {
		t.Fatalf("SetViewing returned error: %v", err)
	}
	if !resp.Viewing {
		t.Error("response Viewing = false, want true")
	}
	if fx.sessions.rows[0].ViewingConversationID != convID {
		t.Errorf("session viewing = %d, want %d", fx.sessions.rows[0].ViewingConversationID, convID)
	}

	if _, err := fx.svc.SetViewing(1, "sock-1", &request.SetViewingRequest{
		ConversationID: convID, Viewing: false,
	}); err != nil {
		t.Fatalf("SetViewing(false) returned error: %v", err)
	}
	if fx.sessions.rows[0].ViewingConversationID != 0 {
		t.Errorf("session viewing = %d after leave, want 0", fx.sessions.rows[0].ViewingConversationID)
	}
}
