package service

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"clm-server/internal/config"
)

// EmailSender 邀请通知发送接口
// 发送失败由调用方记录在邀请的 email_sent 标记上，不作为操作失败处理
type EmailSender interface {
	SendInvitation(to, organizationName, acceptURL string) error
}

// EmailService 邮件服务
type EmailService struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
	}
}

// SendEmail 发送邮件
func (s *EmailService) SendEmail(to, subject, body string) error {
	if s.host == "" {
		return fmt.Errorf("邮件服务未配置")
	}

	auth := smtp.PlainAuth("", s.username, s.password, s.host)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)

	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	// 465 端口走 TLS
	if s.port == 465 {
		return s.sendEmailTLS(to, subject, body)
	}

	return smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg))
}

// sendEmailTLS 通过 TLS 发送邮件
func (s *EmailService) sendEmailTLS(to, subject, body string) error {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         s.host,
	}

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return err
	}
	defer client.Close()

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	if err = client.Auth(auth); err != nil {
		return err
	}

	if err = client.Mail(s.from); err != nil {
		return err
	}
	if err = client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)

	_, err = w.Write([]byte(msg))
	if err != nil {
		return err
	}

	return w.Close()
}

// 邀请邮件模板
const invitationTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #1890ff; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background: #f9f9f9; }
        .footer { padding: 20px; text-align: center; color: #999; font-size: 12px; }
        .btn { display: inline-block; padding: 10px 20px; background: #1890ff; color: white; text-decoration: none; border-radius: 4px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>加入组织邀请</h1>
        </div>
        <div class="content">
            <p>您好：</p>
            <p><strong>{{.OrganizationName}}</strong> 邀请您加入其团队。</p>
            <p>点击下方按钮完成注册即可接受邀请，链接 7 天内有效。</p>
            <p style="text-align: center; margin-top: 30px;">
                <a href="{{.AcceptURL}}" class="btn">接受邀请</a>
            </p>
        </div>
        <div class="footer">
            <p>此邮件由系统自动发送，请勿回复。如非本人操作请忽略。</p>
        </div>
    </div>
</body>
</html>
`

// invitationData 邀请邮件数据
type invitationData struct {
	OrganizationName string
	AcceptURL        string
}

// SendInvitation 发送邀请通知
func (s *EmailService) SendInvitation(to, organizationName, acceptURL string) error {
	tmpl, err := template.New("invitation").Parse(invitationTemplate)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, invitationData{
		OrganizationName: organizationName,
		AcceptURL:        acceptURL,
	}); err != nil {
		return err
	}

	subject := fmt.Sprintf("【加入邀请】%s 邀请您加入", organizationName)
	return s.SendEmail(to, subject, buf.String())
}
