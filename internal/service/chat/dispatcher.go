// Package chat 实现实时网关的核心服务层
// dispatcher.go
// 核心职责：入站帧的解码、鉴权、分发与响应
// 1. 每条入站帧恰好产生一条同名出站响应，客户端按操作名关联
// 2. 操作 -> 所需角色是一张静态策略表，分发时查一次
// 3. 成功的写操作额外产生零或多条广播
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"duo_chat_server/internal/dto/request"
	"duo_chat_server/internal/infrastructure/metrics"
	"duo_chat_server/internal/service/chatops"
	"duo_chat_server/pkg/constants"
	"duo_chat_server/pkg/errorx"
)

// Frame 入站帧
type Frame struct {
	Operation string          `json:"operation"`
	Data      json.RawMessage `json:"data"`
}

// Response 出站响应信封，广播复用同一结构
type Response struct {
	Operation string      `json:"operation"`
	Success   bool        `json:"success"`
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
}

// 操作名常量，响应和广播使用与请求相同的名字
const (
	OpCreateConversation       = "createConversation"
	OpSendMessage              = "sendMessage"
	OpListMessages             = "listMessages"
	OpEditMessage              = "editMessage"
	OpDeleteMessage            = "deleteMessage"
	OpDeleteMessageForEveryone = "deleteMessageForEveryone"
	OpReadMessages             = "readMessages"
	OpDeleteConversation       = "deleteConversation"
	OpSetViewing               = "setViewing"
	OpUserIsOffline            = "userIsOffline" // 服务端主动推送
	OpUnauthorized             = "unauthorized"  // 握手失败
)

// opPolicy 静态策略表：操作 -> 所需角色
// 目前所有操作仅要求普通用户身份，表的存在让新增管理操作只改一行
var opPolicy = map[string]string{
	OpCreateConversation:       constants.ROLE_USER,
	OpSendMessage:              constants.ROLE_USER,
	OpListMessages:             constants.ROLE_USER,
	OpEditMessage:              constants.ROLE_USER,
	OpDeleteMessage:            constants.ROLE_USER,
	OpDeleteMessageForEveryone: constants.ROLE_USER,
	OpReadMessages:             constants.ROLE_USER,
	OpDeleteConversation:       constants.ROLE_USER,
	OpSetViewing:               constants.ROLE_USER,
}

// roleAllows 判断连接角色是否满足要求，管理员覆盖普通用户权限
func roleAllows(role, required string) bool {
	if required == constants.ROLE_USER {
		return role == constants.ROLE_USER || role == constants.ROLE_ADMIN
	}
	return role == required
}

// opHandler 单个操作的处理函数
type opHandler func(conn *ClientConn, data json.RawMessage) (interface{}, error)

// Dispatcher 操作分发器
type Dispatcher struct {
	svc      *chatops.Service
	broker   Broker
	validate *validator.Validate
	ops      map[string]opHandler
}

// NewDispatcher 创建分发器并装配操作表
func NewDispatcher(svc *chatops.Service, broker Broker) *Dispatcher {
	v := validator.New()
	// DTO 上统一使用 binding 标签，HTTP 和 WebSocket 共用一套校验规则
	v.SetTagName("binding")

	d := &Dispatcher{
		svc:      svc,
		broker:   broker,
		validate: v,
	}
	d.ops = map[string]opHandler{
		OpCreateConversation:       d.handleCreateConversation,
		OpSendMessage:              d.handleSendMessage,
		OpListMessages:             d.handleListMessages,
		OpEditMessage:              d.handleEditMessage,
		OpDeleteMessage:            d.handleDeleteMessage,
		OpDeleteMessageForEveryone: d.handleDeleteMessageForEveryone,
		OpReadMessages:             d.handleReadMessages,
		OpDeleteConversation:       d.handleDeleteConversation,
		OpSetViewing:               d.handleSetViewing,
	}
	return d
}

// Dispatch 处理一条入站帧
// 不论解码、鉴权还是业务失败，都会回一条响应，入站帧从不被静默丢弃
func (d *Dispatcher) Dispatch(conn *ClientConn, raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		d.reply(conn, "", nil, errorx.Wrap(err, errorx.CodeInvalidParam, "无法解析请求"))
		return
	}

	handler, ok := d.ops[frame.Operation]
	if !ok {
		d.reply(conn, frame.Operation, nil,
			errorx.Newf(errorx.CodeInvalidParam, "未知操作 %s", frame.Operation))
		return
	}
	if !roleAllows(conn.Role, opPolicy[frame.Operation]) {
		d.reply(conn, frame.Operation, nil, errorx.New(errorx.CodeDenied, "无权限执行该操作"))
		return
	}

	start := time.Now()
	data, err := handler(conn, frame.Data)
	metrics.OperationDuration.WithLabelValues(frame.Operation).Observe(time.Since(start).Seconds())
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.OperationTotal.WithLabelValues(frame.Operation, result).Inc()

	d.reply(conn, frame.Operation, data, err)
}

// decode 反序列化并校验载荷
func (d *Dispatcher) decode(data json.RawMessage, dst interface{}) error {
	if len(data) == 0 {
		return errorx.New(errorx.CodeInvalidParam, "缺少请求载荷")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errorx.Wrap(err, errorx.CodeInvalidParam, "无法解析请求载荷")
	}
	if err := d.validate.Struct(dst); err != nil {
		return errorx.Wrap(err, errorx.CodeInvalidParam, "请求参数错误")
	}
	return nil
}

// reply 向发起方写回响应
// 内部错误只回统一提示，细节进日志不出网
func (d *Dispatcher) reply(conn *ClientConn, operation string, data interface{}, err error) {
	resp := Response{Operation: operation}
	if err == nil {
		resp.Success = true
		resp.Code = errorx.CodeSuccess
		resp.Message = "成功"
		resp.Data = data
	} else {
		resp.Code = errorx.GetCode(err)
		switch resp.Code {
		case errorx.CodeDBError, errorx.CodeCacheError, errorx.CodeServerBusy:
			zap.L().Error("operation failed",
				zap.String("operation", operation),
				zap.String("socket_id", conn.SocketID),
				zap.Int64("user_id", conn.UserID),
				zap.Error(err))
			resp.Code = errorx.CodeServerBusy
			resp.Message = "服务繁忙，请稍后再试"
		default:
			var codeErr *errorx.CodeError
			if errors.As(err, &codeErr) {
				resp.Message = codeErr.Msg
			} else {
				resp.Message = err.Error()
			}
		}
	}

	payload, err := json.Marshal(&resp)
	if err != nil {
		zap.L().Error("marshal response failed", zap.String("operation", operation), zap.Error(err))
		return
	}
	conn.Send(payload)
}

// broadcast 向主题发布一条与请求同名的广播
func (d *Dispatcher) broadcast(topic, exclude, operation string, data interface{}, kind string) {
	payload, err := json.Marshal(&Response{
		Operation: operation,
		Success:   true,
		Code:      errorx.CodeSuccess,
		Message:   "成功",
		Data:      data,
	})
	if err != nil {
		zap.L().Error("marshal broadcast failed", zap.String("operation", operation), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := d.broker.Publish(ctx, &Event{Topic: topic, Exclude: exclude, Payload: payload}); err != nil {
		zap.L().Warn("publish broadcast failed",
			zap.String("operation", operation), zap.String("topic", topic), zap.Error(err))
		return
	}
	metrics.BroadcastTotal.WithLabelValues(kind).Inc()
}

func (d *Dispatcher) handleCreateConversation(conn *ClientConn, data json.RawMessage) (interface{}, error) {
	var req request.CreateConversationRequest
	if err := d.decode(data, &req); err != nil {
		return nil, err
	}
	return d.svc.CreateConversation(conn.UserID, &req)
}

func (d *Dispatcher) handleSendMessage(conn *ClientConn, data json.RawMessage) (interface{}, error) {
	var req request.SendMessageRequest
	if err := d.decode(data, &req); err != nil {
		return nil, err
	}
	resp, err := d.svc.SendMessage(conn.UserID, &req)
	if err != nil {
		return nil, err
	}
	d.broadcast(convTopic(resp.ConversationID), conn.SocketID, OpSendMessage, resp, "conversation")
	return resp, nil
}

func (d *Dispatcher) handleListMessages(conn *ClientConn, data json.RawMessage) (interface{}, error) {
	var req request.ListMessagesRequest
	if err := d.decode(data, &req); err != nil {
		return nil, err
	}
	return d.svc.ListMessages(conn.UserID, &req)
}

func (d *Dispatcher) handleEditMessage(conn *ClientConn, data json.RawMessage) (interface{}, error) {
	var req request.EditMessageRequest
	if err := d.decode(data, &req); err != nil {
		return nil, err
	}
	resp, err := d.svc.EditMessage(conn.UserID, &req)
	if err != nil {
		return nil, err
	}
	d.broadcast(convTopic(resp.ConversationID), conn.SocketID, OpEditMessage, resp, "conversation")
	return resp, nil
}

func (d *Dispatcher) handleDeleteMessage(conn *ClientConn, data json.RawMessage) (interface{}, error) {
	var req request.DeleteMessageRequest
	if err := d.decode(data, &req); err != nil {
		return nil, err
	}
	resp, err := d.svc.DeleteMessage(conn.UserID, &req)
	if err != nil {
		return nil, err
	}
	// 仅自己删除：同步给自己的其他设备，对端不感知
	d.broadcast(userTopic(conn.UserID), conn.SocketID, OpDeleteMessage, resp, "user")
	return resp, nil
}

func (d *Dispatcher) handleDeleteMessageForEveryone(conn *ClientConn, data json.RawMessage) (interface{}, error) {
	var req request.DeleteMessageRequest
	if err := d.decode(data, &req); err != nil {
		return nil, err
	}
	resp, err := d.svc.DeleteMessageForEveryone(conn.UserID, &req)
	if err != nil {
		return nil, err
	}
	d.broadcast(convTopic(resp.ConversationID), conn.SocketID, OpDeleteMessageForEveryone, resp, "conversation")
	return resp, nil
}

func (d *Dispatcher) handleReadMessages(conn *ClientConn, data json.RawMessage) (interface{}, error) {
	var req request.ReadMessagesRequest
	if err := d.decode(data, &req); err != nil {
		return nil, err
	}
	resp, err := d.svc.ReadMessages(conn.UserID, &req)
	if err != nil {
		return nil, err
	}
	d.broadcast(convTopic(resp.ConversationID), conn.SocketID, OpReadMessages, resp, "conversation")
	return resp, nil
}

func (d *Dispatcher) handleDeleteConversation(conn *ClientConn, data json.RawMessage) (interface{}, error) {
	var req request.DeleteConversationRequest
	if err := d.decode(data, &req); err != nil {
		return nil, err
	}
	resp, err := d.svc.DeleteConversation(conn.UserID, &req)
	if err != nil {
		return nil, err
	}
	d.broadcast(userTopic(conn.UserID), conn.SocketID, OpDeleteConversation, resp, "user")
	return resp, nil
}

func (d *Dispatcher) handleSetViewing(conn *ClientConn, data json.RawMessage) (interface{}, error) {
	var req request.SetViewingRequest
	if err := d.decode(data, &req); err != nil {
		return nil, err
	}
	resp, err := d.svc.SetViewing(conn.UserID, conn.SocketID, &req)
	if err != nil {
		return nil, err
	}
	// 查看中加入会话频道和对端在线状态频道，离开时退出
	if req.Viewing {
		d.broker.Subscribe(conn, convTopic(resp.ConversationID))
		d.broker.Subscribe(conn, presenceTopic(resp.PeerID))
	} else {
		d.broker.Unsubscribe(conn, convTopic(resp.ConversationID))
		d.broker.Unsubscribe(conn, presenceTopic(resp.PeerID))
	}
	return resp, nil
}
