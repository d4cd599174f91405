package core

// loadBoot loads the library into the system module.  Everything in
// it can be shadowed by a user definition.
func (e *Engine) loadBoot() error {
	return e.consultText("boot", bootSource, e.System())
}

const bootSource = `
% Lists.

append([], L, L).
append([H|T], L, [H|R]) :-
    append(T, L, R).

append(Ls, L) :-
    '$append_lists'(Ls, L).

'$append_lists'([], []).
'$append_lists'([L|Ls], As) :-
    append(L, Ws, As),
    '$append_lists'(Ls, Ws).

member(X, [X|_]).
member(X, [_|T]) :-
    member(X, T).

memberchk(X, L) :-
    member(X, L), !.

reverse(L, R) :-
    '$reverse'(L, [], R).

'$reverse'([], R, R).
'$reverse'([H|T], A, R) :-
    '$reverse'(T, [H|A], R).

nth0(I, L, E) :-
    integer(I), !,
    I >= 0,
    '$nth'(I, L, E).
nth0(I, L, E) :-
    var(I), !,
    '$nth_gen'(L, E, 0, I).
nth0(I, _, _) :-
    throw(error(type_error(integer, I), nth0/3)).

nth1(I, L, E) :-
    integer(I), !,
    I0 is I - 1,
    nth0(I0, L, E).
nth1(I, L, E) :-
    var(I), !,
    nth0(I0, L, E),
    I is I0 + 1.
nth1(I, _, _) :-
    throw(error(type_error(integer, I), nth1/3)).

'$nth'(0, [E|_], E) :- !.
'$nth'(I, [_|T], E) :-
    I1 is I - 1,
    '$nth'(I1, T, E).

'$nth_gen'([E|_], E, B, B).
'$nth_gen'([_|T], E, B0, B) :-
    B1 is B0 + 1,
    '$nth_gen'(T, E, B1, B).

last([X|Xs], Last) :-
    '$last'(Xs, X, Last).

'$last'([], Last, Last).
'$last'([X|Xs], _, Last) :-
    '$last'(Xs, X, Last).

select(X, [X|T], T).
select(X, [H|T], [H|R]) :-
    select(X, T, R).

selectchk(X, L, R) :-
    select(X, L, R), !.

select(X, Xs, Y, Ys) :-
    '$select4'(Xs, X, Y, Ys).

'$select4'([X|T], X, Y, [Y|T]).
'$select4'([H|T], X, Y, [H|T2]) :-
    '$select4'(T, X, Y, T2).

subtract([], _, []).
subtract([H|T], L, R) :-
    (   memberchk(H, L)
    ->  R = R1
    ;   R = [H|R1]
    ),
    subtract(T, L, R1).

intersection([], _, []).
intersection([H|T], L, R) :-
    (   memberchk(H, L)
    ->  R = [H|R1]
    ;   R = R1
    ),
    intersection(T, L, R1).

union([], L, L).
union([H|T], L, R) :-
    (   memberchk(H, L)
    ->  R = R1
    ;   R = [H|R1]
    ),
    union(T, L, R1).

delete([], _, []).
delete([H|T], X, R) :-
    (   H \= X
    ->  R = [H|R1]
    ;   R = R1
    ),
    delete(T, X, R1).

exclude(_, [], []).
exclude(P, [X|Xs], R) :-
    (   call(P, X)
    ->  R = R1
    ;   R = [X|R1]
    ),
    exclude(P, Xs, R1).

include(_, [], []).
include(P, [X|Xs], R) :-
    (   call(P, X)
    ->  R = [X|R1]
    ;   R = R1
    ),
    include(P, Xs, R1).

partition(_, [], [], []).
partition(P, [X|Xs], I, E) :-
    (   call(P, X)
    ->  I = [X|I1], E = E1
    ;   I = I1, E = [X|E1]
    ),
    partition(P, Xs, I1, E1).

list_to_set(List, Set) :-
    '$list_to_set'(List, [], Set).

'$list_to_set'([], _, []).
'$list_to_set'([H|T], Seen, R) :-
    (   '$memberchk_eq'(H, Seen)
    ->  R = R1
    ;   R = [H|R1]
    ),
    '$list_to_set'(T, [H|Seen], R1).

'$memberchk_eq'(X, [Y|Ys]) :-
    (   X == Y
    ->  true
    ;   '$memberchk_eq'(X, Ys)
    ).

flatten(List, Flat) :-
    '$flatten'(List, [], Flat0), !,
    Flat = Flat0.

'$flatten'(Var, Tl, [Var|Tl]) :-
    var(Var), !.
'$flatten'([], Tl, Tl) :- !.
'$flatten'([Hd|Tl], Tail, List) :- !,
    '$flatten'(Hd, FlatHeadTail, List),
    '$flatten'(Tl, Tail, FlatHeadTail).
'$flatten'(NonList, Tl, [NonList|Tl]).

permutation([], []).
permutation(L, [H|T]) :-
    select(H, L, R),
    permutation(R, T).

sum_list(Xs, Sum) :-
    '$sum_list'(Xs, 0, Sum).

'$sum_list'([], Sum, Sum).
'$sum_list'([X|Xs], Sum0, Sum) :-
    Sum1 is Sum0 + X,
    '$sum_list'(Xs, Sum1, Sum).

sumlist(Xs, Sum) :-
    sum_list(Xs, Sum).

max_list([H|T], Max) :-
    '$max_list'(T, H, Max).

'$max_list'([], Max, Max).
'$max_list'([H|T], Max0, Max) :-
    Max1 is max(Max0, H),
    '$max_list'(T, Max1, Max).

min_list([H|T], Min) :-
    '$min_list'(T, H, Min).

'$min_list'([], Min, Min).
'$min_list'([H|T], Min0, Min) :-
    Min1 is min(Min0, H),
    '$min_list'(T, Min1, Min).

max_member(Max, [H|T]) :-
    '$max_member'(T, H, Max).

'$max_member'([], Max, Max).
'$max_member'([H|T], Max0, Max) :-
    (   H @> Max0
    ->  Max1 = H
    ;   Max1 = Max0
    ),
    '$max_member'(T, Max1, Max).

min_member(Min, [H|T]) :-
    '$min_member'(T, H, Min).

'$min_member'([], Min, Min).
'$min_member'([H|T], Min0, Min) :-
    (   H @< Min0
    ->  Min1 = H
    ;   Min1 = Min0
    ),
    '$min_member'(T, Min1, Min).

numlist(L, H, R) :-
    must_be(integer, L),
    must_be(integer, H),
    L =< H,
    '$numlist'(L, H, R).

'$numlist'(H, H, [H]) :- !.
'$numlist'(L, H, [L|T]) :-
    L1 is L + 1,
    '$numlist'(L1, H, T).

pairs_keys_values([], [], []).
pairs_keys_values([K-V|T], [K|Ks], [V|Vs]) :-
    pairs_keys_values(T, Ks, Vs).

pairs_keys([], []).
pairs_keys([K-_|T], [K|Ks]) :-
    pairs_keys(T, Ks).

pairs_values([], []).
pairs_values([_-V|T], [V|Vs]) :-
    pairs_values(T, Vs).

list_to_ord_set(L, S) :-
    sort(L, S).

ord_union(A, B, C) :-
    append(A, B, L),
    sort(L, C).

ord_subtract(A, B, C) :-
    subtract(A, B, C).

ord_memberchk(X, L) :-
    memberchk(X, L).

predsort(_, [], []) :- !.
predsort(_, [X], [X]) :- !.
predsort(P, L, Sorted) :-
    length(L, N),
    H is N // 2,
    length(L1, H),
    append(L1, L2, L),
    predsort(P, L1, S1),
    predsort(P, L2, S2),
    '$predmerge'(P, S1, S2, Sorted).

'$predmerge'(_, [], L, L) :- !.
'$predmerge'(_, L, [], L) :- !.
'$predmerge'(P, [H1|T1], [H2|T2], Result) :-
    call(P, Delta, H1, H2),
    '$predmerge'(Delta, P, H1, H2, T1, T2, Result).

'$predmerge'(<, P, H1, H2, T1, T2, [H1|R]) :-
    '$predmerge'(P, T1, [H2|T2], R).
'$predmerge'(=, P, H1, _, T1, T2, [H1|R]) :-
    '$predmerge'(P, T1, T2, R).
'$predmerge'(>, P, H1, H2, T1, T2, [H2|R]) :-
    '$predmerge'(P, [H1|T1], T2, R).

% Meta-calls.

forall(Cond, Action) :-
    \+ (Cond, \+ Action).

apply(G, Args) :-
    G =.. L0,
    append(L0, Args, L1),
    G1 =.. L1,
    call(G1).

maplist(_, []).
maplist(G, [A|As]) :-
    call(G, A),
    maplist(G, As).

maplist(_, [], []).
maplist(G, [A|As], [B|Bs]) :-
    call(G, A, B),
    maplist(G, As, Bs).

maplist(_, [], [], []).
maplist(G, [A|As], [B|Bs], [C|Cs]) :-
    call(G, A, B, C),
    maplist(G, As, Bs, Cs).

maplist(_, [], [], [], []).
maplist(G, [A|As], [B|Bs], [C|Cs], [D|Ds]) :-
    call(G, A, B, C, D),
    maplist(G, As, Bs, Cs, Ds).

maplist(_, [], [], [], [], []).
maplist(G, [A|As], [B|Bs], [C|Cs], [D|Ds], [E|Es]) :-
    call(G, A, B, C, D, E),
    maplist(G, As, Bs, Cs, Ds, Es).

maplist(_, [], [], [], [], [], []).
maplist(G, [A|As], [B|Bs], [C|Cs], [D|Ds], [E|Es], [F|Fs]) :-
    call(G, A, B, C, D, E, F),
    maplist(G, As, Bs, Cs, Ds, Es, Fs).

foldl(G, L, V0, V) :-
    '$foldl'(L, G, V0, V).

'$foldl'([], _, V, V).
'$foldl'([X|Xs], G, V0, V) :-
    call(G, X, V0, V1),
    '$foldl'(Xs, G, V1, V).

foldl(G, L1, L2, V0, V) :-
    '$foldl'(L1, L2, G, V0, V).

'$foldl'([], [], _, V, V).
'$foldl'([X|Xs], [Y|Ys], G, V0, V) :-
    call(G, X, Y, V0, V1),
    '$foldl'(Xs, Ys, G, V1, V).

foldl(G, L1, L2, L3, V0, V) :-
    '$foldl'(L1, L2, L3, G, V0, V).

'$foldl'([], [], [], _, V, V).
'$foldl'([X|Xs], [Y|Ys], [Z|Zs], G, V0, V) :-
    call(G, X, Y, Z, V0, V1),
    '$foldl'(Xs, Ys, Zs, G, V1, V).

% Types.

must_be(Type, X) :-
    (   var(X)
    ->  throw(error(instantiation_error, must_be/2))
    ;   '$has_type'(Type, X)
    ->  true
    ;   throw(error(type_error(Type, X), must_be/2))
    ).

is_of_type(Type, X) :-
    '$has_type'(Type, X).

'$has_type'(integer, X) :- integer(X).
'$has_type'(atom, X) :- atom(X).
'$has_type'(atomic, X) :- atomic(X).
'$has_type'(callable, X) :- callable(X).
'$has_type'(list, X) :- is_list(X).
'$has_type'(boolean, X) :- ( X == true ; X == false ).
'$has_type'(positive_integer, X) :- integer(X), X > 0.
'$has_type'(nonneg, X) :- integer(X), X >= 0.
'$has_type'(number, X) :- number(X).
'$has_type'(string, X) :- string(X).
'$has_type'(var, X) :- var(X).

% Messages.

print_message(silent, _) :- !.
print_message(informational, _) :-
    current_prolog_flag(verbose, silent), !.
print_message(Kind, Msg) :-
    '$message_prefix'(Kind, Prefix),
    format(user_error, "~w~p~n", [Prefix, Msg]).

'$message_prefix'(error, 'ERROR: ') :- !.
'$message_prefix'(warning, 'Warning: ') :- !.
'$message_prefix'(_, '% ').
`
