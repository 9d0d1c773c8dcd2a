package server

import "time"

// schedule 房间持有的可取消定时任务：倒计时、Tick 循环、回合截止
// 仅由房间自身的执行协程访问；未激活时对应 channel 为 nil，select 永远不会命中
type schedule struct {
	countdown *time.Ticker
	tick      *time.Ticker
	deadline  *time.Timer
}

func (s *schedule) countdownC() <-chan time.Time {
	if s.countdown == nil {
		return nil
	}
	return s.countdown.C
}

func (s *schedule) tickC() <-chan time.Time {
	if s.tick == nil {
		return nil
	}
	return s.tick.C
}

func (s *schedule) deadlineC() <-chan time.Time {
	if s.deadline == nil {
		return nil
	}
	return s.deadline.C
}

func (s *schedule) startCountdown(step time.Duration) {
	s.stopCountdown()
	s.countdown = time.NewTicker(step)
}

func (s *schedule) stopCountdown() {
	if s.countdown != nil {
		s.countdown.Stop()
		s.countdown = nil
	}
}

// startRound 同时启动 Tick 循环与回合截止定时器
func (s *schedule) startRound(tickInterval, roundDuration time.Duration) {
	s.stopRound()
	s.tick = time.NewTicker(tickInterval)
	s.deadline = time.NewTimer(roundDuration)
}

// stopRound 回合结束：Tick 循环与截止定时器一起取消
func (s *schedule) stopRound() {
	if s.tick != nil {
		s.tick.Stop()
		s.tick = nil
	}
	if s.deadline != nil {
		s.deadline.Stop()
		s.deadline = nil
	}
}

// stopAll 房间销毁时无条件取消全部定时任务
func (s *schedule) stopAll() {
	s.stopCountdown()
	s.stopRound()
}

func (s *schedule) active() bool {
	return s.countdown != nil || s.tick != nil || s.deadline != nil
}
