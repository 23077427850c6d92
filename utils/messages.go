// file: utils/messages.go
package utils

// MsgCode is the closed vocabulary returned on every API response. Handlers
// speak in codes, never free text, so clients and tests can match exactly.
type MsgCode int

const (
	MsgDBError              MsgCode = 0
	MsgPortLimitReached     MsgCode = 1
	MsgCTFNotFound          MsgCode = 2
	MsgContainerStart       MsgCode = 3
	MsgContainerStop        MsgCode = 4
	MsgContainersTeamStop   MsgCode = 5
	MsgContainerNotFound    MsgCode = 6
	MsgContainerRunning     MsgCode = 7
	MsgContainerLimit       MsgCode = 8
	MsgHintLimitReached     MsgCode = 9
	MsgTeamNotFound         MsgCode = 10
	MsgUserNotFound         MsgCode = 11
	MsgCTFSolved            MsgCode = 12
	MsgSignupSuccess        MsgCode = 13
	MsgWrongPassword        MsgCode = 14
	MsgLoginSuccess         MsgCode = 15
	MsgTeamFull             MsgCode = 16
	MsgTeamExists           MsgCode = 17
	MsgUserAdded            MsgCode = 18
	MsgUserRemoved          MsgCode = 19
	MsgUserAlreadyInTeam    MsgCode = 20
	MsgUserNotInTeam        MsgCode = 21
	MsgInsufficientCoins    MsgCode = 22
	MsgUserOrEmailExists    MsgCode = 23
	MsgUsersNotFound        MsgCode = 24
)

var msgText = map[MsgCode]string{
	MsgDBError:            "An error occurred, please try again.",
	MsgPortLimitReached:   "Server ran out of ports 💀",
	MsgCTFNotFound:        "CTF does not exist.",
	MsgContainerStart:     "Container started.",
	MsgContainerStop:      "Container stopped.",
	MsgContainersTeamStop: "All team containers stopped.",
	MsgContainerNotFound:  "You have no running containers for this CTF.",
	MsgContainerRunning:   "Your team already has a running container for this CTF.",
	MsgContainerLimit:     "Your team already has reached the maximum number of containers limit, please stop other unused containers.",
	MsgHintLimitReached:   "You have used all hints for this CTF.",
	MsgTeamNotFound:       "Team does not exist.",
	MsgUserNotFound:       "User does not exist.",
	MsgCTFSolved:          "CTF solved.",
	MsgSignupSuccess:      "Signed up successfully.",
	MsgWrongPassword:      "Wrong password.",
	MsgLoginSuccess:       "Logged in successfully.",
	MsgTeamFull:           "Team is full.",
	MsgTeamExists:         "Team already exists.",
	MsgUserAdded:          "User added to team.",
	MsgUserRemoved:        "User removed from team.",
	MsgUserAlreadyInTeam:  "User is already in a team.",
	MsgUserNotInTeam:      "User is not in a team.",
	MsgInsufficientCoins:  "Team does not have enough coins.",
	MsgUserOrEmailExists:  "Username or email already registered.",
	MsgUsersNotFound:      "No users found.",
}

// Text returns the canonical human-readable message for a code.
func (m MsgCode) Text() string {
	if t, ok := msgText[m]; ok {
		return t
	}
	return "Unknown error."
}
