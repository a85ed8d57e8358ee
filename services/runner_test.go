package services

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	To   string
	Text string
}

// fakeDispatcher 记录所有发送调用的假发送器
type fakeDispatcher struct {
	calls []sentMessage
	err   error
}

func (f *fakeDispatcher) SendMessage(to string, text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.calls = append(f.calls, sentMessage{To: to, Text: text})
	return "msg-" + strconv.Itoa(len(f.calls)), nil
}

func tenantRows(weekendDays string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "timezone", "weekend_days", "currency_symbol", "currency_code", "is_active",
	}).AddRow(1, "Acme Traders", "UTC", weekendDays, "₹", "INR", true)
}

func visitRows() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "tenant_id", "salesman_id", "salesman_name", "channel", "order_value", "branch", "is_new_customer", "created_at",
	}).
		AddRow(1, 1, 10, "Ramesh", "personal", "460000.0000", "Pune", true, now).
		AddRow(2, 1, 10, "Ramesh", "telephone", "1000000.0000", "Pune", false, now)
}

func rosterRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "tenant_id", "name", "phone", "is_admin", "status"}).
		AddRow(10, 1, "Ramesh", "+91 95376 53927", false, "active").
		AddRow(20, 1, "Priya", "919800000000", true, "active").
		AddRow(30, 1, "Arjun", "919811111111", false, "active")
}

func newRunner(t *testing.T) (*ReportRunner, sqlmock.Sqlmock, *fakeDispatcher) {
	t.Helper()
	db, mock := newMockDB(t)
	dispatcher := &fakeDispatcher{}
	gate := NewSendGate(db, testLogger())
	runner := NewReportRunner(db, gate, dispatcher, testLogger())
	return runner, mock, dispatcher
}

func TestRunDryRunPreviewsWithoutSending(t *testing.T) {
	runner, mock, dispatcher := newRunner(t)

	mock.ExpectQuery("SELECT (.+) FROM `tenants`").WillReturnRows(tenantRows(""))
	// dry-run门禁：只读探测锁，不插入
	mock.ExpectQuery("SELECT (.+) FROM `send_logs`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "report_date", "report_type"}))
	mock.ExpectQuery("SELECT count(.+) FROM `visits`").WillReturnRows(countRows(2))
	mock.ExpectQuery("SELECT (.+) FROM `visits`").WillReturnRows(visitRows())
	mock.ExpectQuery("SELECT (.+) FROM `salesmen`").WillReturnRows(rosterRows())

	result, err := runner.Run(RunOptions{DryRun: true})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Tenants)
	assert.Equal(t, 0, result.Sent)
	assert.Equal(t, 0, result.Failed)
	// Ramesh的个人日报 + Priya的团队日报（Arjun当日无活动，不发个人日报）
	assert.Equal(t, 2, result.WouldSend)
	assert.Empty(t, dispatcher.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunSkipsWeekendTenant(t *testing.T) {
	runner, mock, dispatcher := newRunner(t)

	weekday := strconv.Itoa(int(time.Now().UTC().Weekday()))
	mock.ExpectQuery("SELECT (.+) FROM `tenants`").WillReturnRows(tenantRows(weekday))
	mock.ExpectQuery("SELECT (.+) FROM `send_logs`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "report_date", "report_type"}))

	result, err := runner.Run(RunOptions{DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Sent)
	assert.Equal(t, 0, result.WouldSend)
	assert.Equal(t, []string{"Acme Traders"}, result.Skipped.Weekend)
	assert.Empty(t, dispatcher.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunForceSendsThroughDispatcher(t *testing.T) {
	runner, mock, dispatcher := newRunner(t)

	// force=true：不插入发送锁，直接走无拜访检查
	mock.ExpectQuery("SELECT (.+) FROM `tenants`").WillReturnRows(tenantRows(""))
	mock.ExpectQuery("SELECT count(.+) FROM `visits`").WillReturnRows(countRows(2))
	mock.ExpectQuery("SELECT (.+) FROM `visits`").WillReturnRows(visitRows())
	mock.ExpectQuery("SELECT (.+) FROM `salesmen`").WillReturnRows(rosterRows())

	result, err := runner.Run(RunOptions{Force: true})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 0, result.Failed)
	require.Len(t, dispatcher.calls, 2)
	// 个人日报发给Ramesh本人，团队日报发给管理员Priya
	assert.Equal(t, "+91 95376 53927", dispatcher.calls[0].To)
	assert.Contains(t, dispatcher.calls[0].Text, "Ramesh")
	assert.Equal(t, "919800000000", dispatcher.calls[1].To)
	assert.Contains(t, dispatcher.calls[1].Text, "Team Daily Report")
	// 管理员日报包含当日无活动的销售员提醒
	assert.Contains(t, dispatcher.calls[1].Text, "Arjun")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRecipientOverrideDivertsAllMessages(t *testing.T) {
	runner, mock, dispatcher := newRunner(t)

	mock.ExpectQuery("SELECT (.+) FROM `tenants`").WillReturnRows(tenantRows(""))
	mock.ExpectQuery("SELECT count(.+) FROM `visits`").WillReturnRows(countRows(2))
	mock.ExpectQuery("SELECT (.+) FROM `visits`").WillReturnRows(visitRows())
	mock.ExpectQuery("SELECT (.+) FROM `salesmen`").WillReturnRows(rosterRows())

	result, err := runner.Run(RunOptions{Force: true, Recipients: []string{"+91 90000 00000"}})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Sent)
	require.Len(t, dispatcher.calls, 2)
	for _, call := range dispatcher.calls {
		assert.Equal(t, "+91 90000 00000", call.To)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunDispatchFailureIsIsolated(t *testing.T) {
	runner, mock, dispatcher := newRunner(t)
	dispatcher.err = errors.New("session expired")

	mock.ExpectQuery("SELECT (.+) FROM `tenants`").WillReturnRows(tenantRows(""))
	mock.ExpectQuery("SELECT count(.+) FROM `visits`").WillReturnRows(countRows(2))
	mock.ExpectQuery("SELECT (.+) FROM `visits`").WillReturnRows(visitRows())
	mock.ExpectQuery("SELECT (.+) FROM `salesmen`").WillReturnRows(rosterRows())

	result, err := runner.Run(RunOptions{Force: true})
	require.NoError(t, err)

	// 单条发送失败只计数，不中断整轮运行
	assert.True(t, result.Success)
	assert.Equal(t, 0, result.Sent)
	assert.Equal(t, 2, result.Failed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunTenantEnumerationFailureIsFatal(t *testing.T) {
	runner, mock, _ := newRunner(t)

	mock.ExpectQuery("SELECT (.+) FROM `tenants`").WillReturnError(errors.New("connection refused"))

	result, err := runner.Run(RunOptions{})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}
