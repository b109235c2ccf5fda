package repository

import "errors"

var ErrNotFound = errors.New("запись не найдена")

// ErrDuplicate - нарушено ограничение уникальности (пара board/user,
// имя пользователя, email, имя тега)
var ErrDuplicate = errors.New("запись уже существует")
