// Package chatops 实现会话与消息操作的业务逻辑
// Repository 负责原子读写，这里负责参数校验、可见性裁决、缓存和推送，
// 每个操作对应网关的一个同名指令
package chatops

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"duo_chat_server/internal/dao/mysql/repository"
	redisdao "duo_chat_server/internal/dao/redis"
	"duo_chat_server/internal/dto/request"
	"duo_chat_server/internal/dto/respond"
	"duo_chat_server/internal/infrastructure/metrics"
	"duo_chat_server/internal/infrastructure/push"
	"duo_chat_server/internal/model"
	"duo_chat_server/internal/service/presence"
	"duo_chat_server/pkg/constants"
	"duo_chat_server/pkg/errorx"
	"duo_chat_server/pkg/util/jwt"
	"duo_chat_server/pkg/util/snowflake"
)

// Service 会话与消息操作服务
type Service struct {
	repos    *repository.Repositories
	presence *presence.Coordinator
	cache    redisdao.AsyncCacheService
	notifier push.Notifier
	baseURL  string
}

// NewService 创建服务实例
func NewService(repos *repository.Repositories, coordinator *presence.Coordinator,
	cache redisdao.AsyncCacheService, notifier push.Notifier, baseURL string) *Service {
	return &Service{
		repos:    repos,
		presence: coordinator,
		cache:    cache,
		notifier: notifier,
		baseURL:  baseURL,
	}
}

// messagePageKey 首页消息缓存键，按 (会话, 查看者) 区分可见性
func messagePageKey(convID, viewerID int64) string {
	return fmt.Sprintf("chat:messages:%d:%d", convID, viewerID)
}

// invalidateMessagePages 异步清除会话下所有查看者的消息页缓存
func (s *Service) invalidateMessagePages(convID int64) {
	s.cache.SubmitTask(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("chat:messages:%d:*", convID)); err != nil {
			zap.L().Warn("invalidate message page cache failed",
				zap.Int64("conversation_id", convID), zap.Error(err))
		}
	})
}

// visibleConversation 加载会话并校验请求者是参与者
// 非参与者与不存在同样返回 NotFound，不泄露会话是否存在
func (s *Service) visibleConversation(convID, userID int64) (*model.Conversation, error) {
	conv, err := s.repos.Conversation.FindByUuid(convID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, errorx.Newf(errorx.CodeNotFound, "会话 %d 不存在", convID)
	}
	return conv, nil
}

// CreateConversation 查找或创建与对方用户的两人会话
func (s *Service) CreateConversation(userID int64, req *request.CreateConversationRequest) (*respond.ConversationRespond, error) {
	conv, created, err := s.repos.Conversation.FindOrCreate(userID, req.OtherUserID)
	if err != nil {
		return nil, err
	}
	return respond.NewConversationRespond(conv, userID, created, false), nil
}

// SendMessage 发送消息
// 落库成功后异步失效消息页缓存；接收方无活跃连接正在查看该会话时
// 投递离线推送，正在查看时抑制
func (s *Service) SendMessage(userID int64, req *request.SendMessageRequest) (*respond.MessageRespond, error) {
	switch req.Kind {
	case model.MessageKindText:
		if strings.TrimSpace(req.Body) == "" {
			return nil, errorx.New(errorx.CodeInvalidParam, "文本消息 body 不能为空")
		}
	case model.MessageKindMedia:
		if len(req.Media) == 0 {
			return nil, errorx.New(errorx.CodeInvalidParam, "媒体消息 media 不能为空")
		}
	default:
		return nil, errorx.New(errorx.CodeInvalidParam, "未知消息类型")
	}

	conv, err := s.visibleConversation(req.ConversationID, userID)
	if err != nil {
		return nil, err
	}
	if conv.PeerOf(userID) != req.ReceiverID {
		return nil, errorx.New(errorx.CodeInvalidParam, "接收者不是该会话的参与者")
	}

	media := make(model.MediaList, 0, len(req.Media))
	for _, item := range req.Media {
		media = append(media, model.MediaItem{
			Type:      item.Type,
			Path:      item.Path,
			FileName:  item.FileName,
			Thumbnail: item.Thumbnail,
		})
	}

	message := &model.Message{
		Uuid:           snowflake.GenerateID(),
		ConversationID: conv.Uuid,
		SenderID:       userID,
		ReceiverID:     req.ReceiverID,
		SentAt:         time.Now(),
		Kind:           req.Kind,
		Body:           req.Body,
		Media:          media,
		DeletedBy:      model.IDSet{},
	}
	if err := s.repos.Message.Create(message); err != nil {
		return nil, err
	}

	// 接收方若删除过会话，新消息使其重新出现
	if conv.DeletedBy.Contains(req.ReceiverID) {
		if err := s.repos.Conversation.ClearDeletedBy(conv.Uuid, req.ReceiverID); err != nil {
			zap.L().Warn("restore conversation for receiver failed",
				zap.Int64("conversation_id", conv.Uuid), zap.Error(err))
		}
	}

	s.invalidateMessagePages(conv.Uuid)
	s.maybePush(message)

	return respond.NewMessageRespond(message, s.baseURL), nil
}

// maybePush 按查看抑制规则投递离线推送
// 推送失败不影响发送结果，只计数和记录
func (s *Service) maybePush(message *model.Message) {
	if s.notifier == nil {
		return
	}
	viewing, err := s.presence.IsViewing(message.ReceiverID, message.ConversationID)
	if err != nil {
		zap.L().Warn("viewing check failed, push skipped",
			zap.Int64("user_id", message.ReceiverID), zap.Error(err))
		return
	}
	if viewing {
		metrics.PushSuppressed.Inc()
		return
	}

	tokens, err := s.repos.Session.DeviceTokens(message.ReceiverID)
	if err != nil {
		zap.L().Warn("load device tokens failed",
			zap.Int64("user_id", message.ReceiverID), zap.Error(err))
		return
	}
	if len(tokens) == 0 {
		return
	}
	s.notifier.Notify(context.Background(), &push.Notification{
		UserID:         message.ReceiverID,
		DeviceTokens:   tokens,
		SenderID:       message.SenderID,
		ConversationID: message.ConversationID,
		Preview:        preview(message),
	})
}

// preview 生成推送预览，文本按长度截断，媒体用占位符
func preview(message *model.Message) string {
	if message.Kind == model.MessageKindMedia {
		return "[媒体消息]"
	}
	runes := []rune(message.Body)
	if len(runes) > constants.PUSH_PREVIEW_LENGTH {
		return string(runes[:constants.PUSH_PREVIEW_LENGTH])
	}
	return message.Body
}

// ListMessages 分页拉取对请求者可见的消息，最新在前
// 仅第一页默认页长走缓存，其余直查
func (s *Service) ListMessages(userID int64, req *request.ListMessagesRequest) ([]*respond.MessageRespond, error) {
	if _, err := s.visibleConversation(req.ConversationID, userID); err != nil {
		return nil, err
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = constants.MESSAGE_PAGE_LIMIT
	}

	cacheable := page == 1 && limit == constants.MESSAGE_PAGE_LIMIT
	key := messagePageKey(req.ConversationID, userID)
	if cacheable {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if cached, err := s.cache.Get(ctx, key); err == nil && cached != "" {
			var list []*respond.MessageRespond
			if err := json.Unmarshal([]byte(cached), &list); err == nil {
				return list, nil
			}
			// 缓存内容损坏，走数据库并覆盖
		}
	}

	messages, err := s.repos.Message.ListPage(req.ConversationID, userID, page, limit)
	if err != nil {
		return nil, err
	}
	list := make([]*respond.MessageRespond, 0, len(messages))
	for i := range messages {
		list = append(list, respond.NewMessageRespond(&messages[i], s.baseURL))
	}

	if cacheable {
		if data, err := json.Marshal(list); err == nil {
			s.cache.SubmitTask(func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := s.cache.Set(ctx, key, string(data), constants.REDIS_TIMEOUT*time.Minute); err != nil {
					zap.L().Warn("cache message page failed", zap.String("key", key), zap.Error(err))
				}
			})
		}
	}
	return list, nil
}

// EditMessage 编辑消息正文，只有发送者可编辑
// 响应回填 is_last_message，供客户端决定是否刷新会话列表摘要
func (s *Service) EditMessage(userID int64, req *request.EditMessageRequest) (*respond.MessageRespond, error) {
	if _, err := s.visibleConversation(req.ConversationID, userID); err != nil {
		return nil, err
	}

	rows, err := s.repos.Message.UpdateBody(req.MessageID, req.ConversationID, userID, req.Body)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, s.classifyMiss(req.MessageID, req.ConversationID, userID)
	}

	message, err := s.repos.Message.FindByUuid(req.MessageID)
	if err != nil {
		return nil, err
	}
	// 编辑提交之后再查最新消息，结果反映并发写入后的最终状态
	lastUuid, err := s.repos.Message.LastVisibleUuid(req.ConversationID)
	if err != nil {
		return nil, err
	}

	s.invalidateMessagePages(req.ConversationID)

	resp := respond.NewMessageRespond(message, s.baseURL)
	isLast := lastUuid == message.Uuid
	resp.IsLastMessage = &isLast
	return resp, nil
}

// classifyMiss 条件更新 0 行命中时区分 NotFound 与 Denied
func (s *Service) classifyMiss(msgID, convID, userID int64) error {
	message, err := s.repos.Message.FindByUuid(msgID)
	if err != nil {
		return err
	}
	if message.ConversationID != convID || !message.VisibleTo(userID) {
		return errorx.Newf(errorx.CodeNotFound, "消息 %d 不存在", msgID)
	}
	if message.SenderID != userID {
		return errorx.New(errorx.CodeDenied, "只有发送者可以执行该操作")
	}
	return errorx.Newf(errorx.CodeNotFound, "消息 %d 不存在", msgID)
}

// DeleteMessage 将消息对请求者自己隐藏，对端不受影响，幂等
func (s *Service) DeleteMessage(userID int64, req *request.DeleteMessageRequest) (*respond.MessageRefRespond, error) {
	message, err := s.repos.Message.FindByUuid(req.MessageID)
	if err != nil {
		return nil, err
	}
	if message.ConversationID != req.ConversationID ||
		(message.SenderID != userID && message.ReceiverID != userID) ||
		message.IsDeletedForEveryone {
		return nil, errorx.Newf(errorx.CodeNotFound, "消息 %d 不存在", req.MessageID)
	}

	if err := s.repos.Message.AddDeletedBy(req.MessageID, userID); err != nil {
		return nil, err
	}
	s.invalidateMessagePages(req.ConversationID)

	return &respond.MessageRefRespond{
		ConversationID: req.ConversationID,
		MessageID:      req.MessageID,
		UserID:         userID,
	}, nil
}

// DeleteMessageForEveryone 将消息对双方隐藏，只有发送者可执行，幂等
func (s *Service) DeleteMessageForEveryone(userID int64, req *request.DeleteMessageRequest) (*respond.MessageRefRespond, error) {
	rows, err := s.repos.Message.MarkDeletedForEveryone(req.MessageID, req.ConversationID, userID)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		message, err := s.repos.Message.FindByUuid(req.MessageID)
		if err != nil {
			return nil, err
		}
		switch {
		case message.ConversationID != req.ConversationID:
			return nil, errorx.Newf(errorx.CodeNotFound, "消息 %d 不存在", req.MessageID)
		case message.SenderID != userID:
			return nil, errorx.New(errorx.CodeDenied, "只有发送者可以撤回消息")
		case message.IsDeletedForEveryone:
			// 重复撤回视为成功
		default:
			return nil, errorx.Newf(errorx.CodeNotFound, "消息 %d 不存在", req.MessageID)
		}
	}
	s.invalidateMessagePages(req.ConversationID)

	return &respond.MessageRefRespond{
		ConversationID: req.ConversationID,
		MessageID:      req.MessageID,
		UserID:         userID,
	}, nil
}

// ReadMessages 将会话内发给请求者的全部消息置为已读，幂等
func (s *Service) ReadMessages(userID int64, req *request.ReadMessagesRequest) (*respond.ConversationRefRespond, error) {
	if _, err := s.visibleConversation(req.ConversationID, userID); err != nil {
		return nil, err
	}
	if err := s.repos.Message.MarkConversationRead(req.ConversationID, userID); err != nil {
		return nil, err
	}
	s.invalidateMessagePages(req.ConversationID)
	return &respond.ConversationRefRespond{ConversationID: req.ConversationID}, nil
}

// DeleteConversation 将会话及其全部消息对请求者隐藏
func (s *Service) DeleteConversation(userID int64, req *request.DeleteConversationRequest) (*respond.ConversationRefRespond, error) {
	if err := s.repos.Conversation.DeleteFor(req.ConversationID, userID); err != nil {
		return nil, err
	}
	s.invalidateMessagePages(req.ConversationID)
	return &respond.ConversationRefRespond{ConversationID: req.ConversationID}, nil
}

// SetViewing 设置或清除本连接正在查看的会话
func (s *Service) SetViewing(userID int64, socketID string, req *request.SetViewingRequest) (*respond.ConversationRespond, error) {
	conv, err := s.visibleConversation(req.ConversationID, userID)
	if err != nil {
		return nil, err
	}

	var viewingConvID int64
	if req.Viewing {
		viewingConvID = conv.Uuid
	}
	if err := s.presence.SetViewing(userID, socketID, viewingConvID); err != nil {
		return nil, err
	}
	return respond.NewConversationRespond(conv, userID, false, req.Viewing), nil
}

// RegisterSession 登录后注册（或刷新）设备会话行
// 落库的是令牌的 SHA3 摘要，连接握手时拿同一摘要匹配
func (s *Service) RegisterSession(userID int64, rawToken string, req *request.RegisterSessionRequest) (*respond.RegisterSessionRespond, error) {
	session := &model.Session{
		UserID:      userID,
		DeviceType:  req.DeviceType,
		DeviceToken: req.DeviceToken,
		AuthToken:   jwt.Digest(rawToken),
	}
	if err := s.repos.Session.Upsert(session); err != nil {
		return nil, err
	}
	return &respond.RegisterSessionRespond{
		UserID:      userID,
		DeviceType:  req.DeviceType,
		DeviceToken: req.DeviceToken,
	}, nil
}

// LogoutSession 登出删除设备会话行，之后持同一令牌的握手会被拒绝
func (s *Service) LogoutSession(userID int64, req *request.LogoutSessionRequest) error {
	return s.repos.Session.DeleteByUserDevice(userID, req.DeviceType, req.DeviceToken)
}
